// package tasks implements long-running preview operations over whole playlists.
//
// Operations emit progress updates via channels for non-blocking status reporting to the CLI.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/services"
	"github.com/desertthunder/tunesub/internal/shared"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
)

// PreviewResolver is satisfied by [preview.Resolver].
type PreviewResolver interface {
	Resolve(ctx context.Context, track models.TrackRef) models.PreviewOutcome
}

// TrackPreview pairs a playlist track with its preview outcome.
type TrackPreview struct {
	Track   models.TrackRef       `json:"track"`
	Outcome models.PreviewOutcome `json:"outcome"`
}

// ScanReport summarizes preview availability for one playlist.
type ScanReport struct {
	Playlist models.PlaylistSummary `json:"playlist"`
	Results  []TrackPreview         `json:"results"` // In playlist order
	Total    int                    `json:"total"`
	Found    int                    `json:"found"`
	Missing  int                    `json:"missing"`
	Coverage float64                `json:"coverage"` // Percentage of tracks with a preview
}

// MissingTracks returns the tracks without a preview.
func (r *ScanReport) MissingTracks() []models.TrackRef {
	out := make([]models.TrackRef, 0, r.Missing)
	for _, res := range r.Results {
		if !res.Outcome.Found {
			out = append(out, res.Track)
		}
	}
	return out
}

// ScanOpts configures a [PreviewScanner].
type ScanOpts struct {
	Workers int // Concurrent resolutions (default: 4, max: 10)
	Logger  *log.Logger
}

// PreviewScanner resolves previews for every track of a playlist.
type PreviewScanner struct {
	tracks   services.TrackLister
	resolver PreviewResolver
	workers  int
	logger   *log.Logger
}

// NewPreviewScanner creates a scanner that reads playlists from tracks and resolves with resolver.
func NewPreviewScanner(tracks services.TrackLister, resolver PreviewResolver, opts ScanOpts) *PreviewScanner {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &PreviewScanner{
		tracks:   tracks,
		resolver: resolver,
		workers:  opts.Workers,
		logger:   shared.WithLogger(opts.Logger, "component", "scan"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type scanJob struct {
	index int
	track models.TrackRef
}

// Scan fetches the playlist and resolves every track with a bounded worker pool.
//
// Cancelling ctx stops handing out work and returns the context error.
func (s *PreviewScanner) Scan(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*ScanReport, error) {
	if s.tracks == nil || s.resolver == nil {
		return nil, fmt.Errorf("%w: scanner not initialized", shared.ErrServiceUnavailable)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	sendProgress(progress, fetchingTracksUpdate(playlistID))
	detail, err := s.tracks.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist tracks: %w", err)
	}
	sendProgress(progress, foundTracksUpdate(detail))

	total := len(detail.Tracks)
	report := &ScanReport{
		Playlist: detail.Playlist,
		Results:  make([]TrackPreview, total),
		Total:    total,
	}

	jobs := make(chan scanJob)
	done := make(chan int, total)

	var wg sync.WaitGroup
	for range min(s.workers, max(total, 1)) {
		wg.Add(1)
		go s.worker(ctx, &wg, jobs, done, report.Results)
	}

	go func() {
		defer close(jobs)
		for i, tr := range detail.Tracks {
			select {
			case jobs <- scanJob{index: i, track: tr}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		completed++
		sendProgress(progress, resolvedUpdate(completed, total, report.Results[i]))
	}

	if err := ctx.Err(); err != nil {
		s.logger.Warn("scan cancelled", "playlist", playlistID, "completed", completed, "total", total)
		return nil, err
	}

	for _, res := range report.Results {
		if res.Outcome.Found {
			report.Found++
		}
	}
	report.Missing = total - report.Found
	if total > 0 {
		report.Coverage = float64(report.Found) / float64(total) * 100
	}

	s.logger.Info("scan complete", "playlist", detail.Playlist.Name, "found", report.Found, "total", total)
	sendProgress(progress, summaryUpdate(report))
	return report, nil
}

// worker resolves jobs, writing each result into its own slot of results.
func (s *PreviewScanner) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan scanJob,
	done chan<- int,
	results []TrackPreview,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		outcome := s.resolver.Resolve(ctx, job.track)
		results[job.index] = TrackPreview{Track: job.track, Outcome: outcome}
		done <- job.index
	}
}
