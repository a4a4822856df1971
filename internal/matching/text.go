package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

var (
	// (Remix), (Radio Edit), (2011 Remaster Version), (feat. X), (ft. X)
	qualifierPattern = regexp.MustCompile(`(?i)\s*\([^)]*?(?:remix|version|edit)[^)]*?\)`)
	featurePattern   = regexp.MustCompile(`(?i)\s*\((?:feat|ft)\.[^)]*?\)`)
	suffixPattern    = regexp.MustCompile(`(?i)\s*-\s*(?:remix|radio edit|extended)`)
)

// Normalize lowercases a title and strips remix, version and featuring qualifiers.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = qualifierPattern.ReplaceAllString(s, "")
	s = featurePattern.ReplaceAllString(s, "")
	s = suffixPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// EditDistance is the Levenshtein distance between a and b, counted in runes: an accented
// letter or an emoji is one edit whatever its UTF-8 or UTF-16 width.
func EditDistance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}

// Similarity maps edit distance onto [0,1]: 1 for identical strings, 0 for nothing in common.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1.0
	}
	return float64(longest-EditDistance(a, b)) / float64(longest)
}
