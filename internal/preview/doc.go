// Package preview resolves 30 second previews for playlist tracks and plays at most one at a time.
//
// # Resolution
//
// [Resolver.Resolve] tries two catalog searches, "artist title" (10 results) then "title" alone
// (15 results), and scores each result list with [matching.BestMatch]. The first accepted
// candidate wins. Outcomes, including "nothing found", are stored in a [Cache] so a track is
// searched at most once per browsing session; [Resolver.Reset] clears it.
//
// # Playback
//
// The resolver holds a single playback slot. [Resolver.Play] stops the current preview before
// starting the next, and a [Player] completion callback clears the slot when a preview runs out.
// Players must not invoke the completion callback from inside Start.
package preview
