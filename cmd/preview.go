package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunesub/internal/formatter"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/desertthunder/tunesub/internal/tasks"
	"github.com/desertthunder/tunesub/internal/ui"
	"github.com/urfave/cli/v3"
)

func playlistArg(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("playlist-id"))
	if id == "" {
		return "", fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	return id, nil
}

// Tracks prints a playlist's tracks, or writes a Markdown export with --output.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.logger.Info("fetching playlist tracks", "playlist", id, "source", r.source.Name())
	detail, err := r.source.PlaylistTracks(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if detail.Playlist.ExternalURL == "" {
			return fmt.Errorf("%w: playlist %s has no external url", shared.ErrInvalidInput, id)
		}
		return r.openURL(detail.Playlist.ExternalURL)
	}

	if dir := cmd.String("output"); dir != "" {
		result, err := formatter.WriteMarkdownExport(r.httpClient, detail, dir, func(err error) {
			r.logger.Warn("cover image skipped", "err", err)
		})
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s (%d files)\n", detail.Playlist.Name, result.Directory, len(result.Files))
		return nil
	}

	data, err := formatter.RenderTracks(detail, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// Preview resolves previews for a playlist's tracks. With --play each preview found is played
// to completion before the next starts.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	if err := r.requireResolver(); err != nil {
		return err
	}
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}

	detail, err := r.source.PlaylistTracks(ctx, id)
	if err != nil {
		return err
	}

	tracks := detail.Tracks
	only := cmd.String("track")
	if only != "" {
		tracks = filterTracks(tracks, only)
		if len(tracks) == 0 {
			return fmt.Errorf("%w: track %s is not in playlist %s", shared.ErrInvalidInput, only, id)
		}
	}

	play := cmd.Bool("play")
	results := make([]tasks.TrackPreview, 0, len(tracks))
	if !cmd.Bool("json") {
		r.writePlainHeader("Previews: " + detail.Playlist.Name)
	}

	for _, tr := range tracks {
		if ctx.Err() != nil {
			break
		}
		outcome := r.resolver.Resolve(ctx, tr)
		results = append(results, tasks.TrackPreview{Track: tr, Outcome: outcome})
		if cmd.Bool("json") {
			continue
		}

		r.writePlain("%s %s - %s\n", ui.Styles.Mark(outcome.Found), tr.Artists(), tr.Title)
		if !play {
			continue
		}
		if !outcome.Found {
			if only != "" {
				return fmt.Errorf("%w: %s - %s", shared.ErrNoPreview, tr.Artists(), tr.Title)
			}
			continue
		}
		if err := r.playAndWait(ctx, tr); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}
	return nil
}

// playAndWait plays track and blocks until the preview ends or ctx is cancelled.
func (r *Runner) playAndWait(ctx context.Context, track models.TrackRef) error {
	if err := r.resolver.Play(ctx, track); err != nil {
		return err
	}
	defer r.resolver.Stop()

	r.writePlain("  %s\n", ui.Styles.Help("▶ playing preview"))
	for {
		select {
		case id := <-r.completions:
			if id == track.ID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func filterTracks(tracks []models.TrackRef, id string) []models.TrackRef {
	for _, tr := range tracks {
		if tr.ID == id {
			return []models.TrackRef{tr}
		}
	}
	return nil
}

// Scan reports preview coverage for a playlist.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	if err := r.requireResolver(); err != nil {
		return err
	}
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	scanner := tasks.NewPreviewScanner(r.source, r.resolver, tasks.ScanOpts{
		Workers: cmd.Int("workers"),
		Logger:  r.logger,
	})

	progress := make(chan tasks.ProgressUpdate, 32)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase.String(), "step", u.Step, "total", u.Total)
		}
	}()

	report, err := scanner.Scan(ctx, progress, id)
	close(progress)
	<-logged
	if err != nil {
		return err
	}

	data, err := formatter.RenderScanReport(report, format)
	if err != nil {
		return err
	}
	if format != formatter.FormatText {
		return r.writeBytes(data)
	}

	r.writePlainHeader("Preview scan")
	if err := r.writeBytes(data); err != nil {
		return err
	}
	return r.writePlainln("%s", ui.Styles.Coverage(report))
}
