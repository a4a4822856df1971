package tasks

import (
	"fmt"

	"github.com/desertthunder/tunesub/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	ResolvePreviews
	Summarize
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case ResolvePreviews:
		return "resolve_previews"
	case Summarize:
		return "summarize"
	default:
		return ""
	}
}

func fetchingTracksUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching tracks for playlist %s...", id),
	}
}

func foundTracksUpdate(detail *models.PlaylistDetail) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", detail.Playlist.Name, len(detail.Tracks)),
		Data:    detail,
	}
}

func resolvedUpdate(step, total int, res TrackPreview) ProgressUpdate {
	mark := "✗"
	if res.Outcome.Found {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   ResolvePreviews,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, res.Track.PrimaryArtist(), res.Track.Title),
		Data:    res,
	}
}

func summaryUpdate(report *ScanReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d/%d tracks have previews (%.1f%%)", report.Found, report.Total, report.Coverage),
		Data:    report,
	}
}
