// Package matching scores catalog search hits against a known track.
//
// Titles are compared after [Normalize] strips remix, version and featuring qualifiers;
// artists are only lowercased and trimmed. Each candidate gets
//
//	0.7 * titleSimilarity + 0.3 * artistSimilarity - penalty
//
// where the penalty is 0.5 for karaoke or instrumental versions and 0.3 for a remix
// the target did not ask for. [BestMatch] accepts the top score only when it is above 0.6.
package matching
