package matching

import (
	"strings"

	"github.com/desertthunder/tunesub/internal/models"
)

const (
	TitleWeight  = 0.7
	ArtistWeight = 0.3

	// Threshold is exclusive: a score must be strictly greater to be accepted.
	Threshold = 0.6

	RemixPenalty   = 0.3
	KaraokePenalty = 0.5
)

// Target is the track a catalog search is trying to find.
type Target struct {
	Title  string
	Artist string
}

// Score is one candidate's breakdown.
type Score struct {
	Candidate models.Candidate
	TitleSim  float64
	ArtistSim float64
	Penalty   float64
	Final     float64
}

// Result is the outcome of scoring a candidate list.
type Result struct {
	Best    *Score  // nil when nothing scored above Threshold
	Scored  []Score // every candidate with a preview, in input order
	Skipped int     // candidates without a preview
}

// Matched reports whether a candidate was accepted.
func (r Result) Matched() bool {
	return r.Best != nil
}

// Locator returns the accepted candidate's preview URL, or "".
func (r Result) Locator() string {
	if r.Best == nil {
		return ""
	}
	return r.Best.Candidate.PreviewURL
}

// Penalty returns the single penalty applied to a candidate title.
//
// Karaoke or instrumental takes precedence over an unrequested remix.
func Penalty(candidateTitle, targetTitle string) float64 {
	title := strings.ToLower(candidateTitle)
	switch {
	case strings.Contains(title, "karaoke"), strings.Contains(title, "instrumental"):
		return KaraokePenalty
	case strings.Contains(title, "remix") && !strings.Contains(strings.ToLower(targetTitle), "remix"):
		return RemixPenalty
	default:
		return 0
	}
}

// ScoreCandidate computes the weighted similarity of c against t, less any penalty.
func ScoreCandidate(t Target, c models.Candidate) Score {
	s := Score{
		Candidate: c,
		TitleSim:  Similarity(Normalize(t.Title), Normalize(c.Title)),
		ArtistSim: Similarity(normalizeArtist(t.Artist), normalizeArtist(c.Artist)),
		Penalty:   Penalty(c.Title, t.Title),
	}
	s.Final = TitleWeight*s.TitleSim + ArtistWeight*s.ArtistSim - s.Penalty
	return s
}

// BestMatch picks the highest scoring candidate that has a preview and scores above [Threshold].
//
// Ties keep the earliest candidate.
func BestMatch(t Target, candidates []models.Candidate) Result {
	var res Result
	best := -1
	for _, c := range candidates {
		if !c.HasPreview() {
			res.Skipped++
			continue
		}
		s := ScoreCandidate(t, c)
		res.Scored = append(res.Scored, s)
		if s.Final <= Threshold {
			continue
		}
		if best < 0 || s.Final > res.Scored[best].Final {
			best = len(res.Scored) - 1
		}
	}
	if best >= 0 {
		res.Best = &res.Scored[best]
	}
	return res
}

func normalizeArtist(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
