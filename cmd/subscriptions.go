package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunesub/internal/formatter"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/desertthunder/tunesub/internal/ui"
	"github.com/urfave/cli/v3"
)

// SubscriptionsList prints managed playlists with their sources, or with --source whether one
// playlist is already subscribed.
func (r *Runner) SubscriptionsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSubscriptions(); err != nil {
		return err
	}

	managed, err := r.subscriptions.ManagedPlaylists(ctx)
	if err != nil {
		return err
	}

	if source := cmd.String("source"); source != "" {
		_, subscribed := models.SubscribedSourceIDs(managed)[source]
		if cmd.Bool("json") {
			return r.writeJSON(map[string]any{"source": source, "subscribed": subscribed}, true)
		}
		if subscribed {
			return r.writePlain("%s %s is subscribed\n", ui.Styles.Mark(true), source)
		}
		return r.writePlain("%s %s is not subscribed\n", ui.Styles.Mark(false), source)
	}

	if cmd.Bool("json") {
		return r.writeJSON(managed, true)
	}

	r.writePlainHeader("Managed playlists")
	if len(managed) == 0 {
		r.writePlain("%s\n", ui.Styles.Help("No managed playlists yet. Use 'tunesub subscriptions add'."))
		return nil
	}
	for _, m := range managed {
		r.writePlain("%s [%s] (%d sources)\n", ui.Styles.Title(m.Name), m.ID, len(m.Subscriptions))
		for _, s := range m.Subscriptions {
			r.writePlain("  - %s [%s]\n", s.SourcePlaylist.Name, s.SourcePlaylist.SpotifyPlaylistID)
		}
	}
	return nil
}

// SubscriptionsTargets lists the user's playlists that can be used as managed playlists.
func (r *Runner) SubscriptionsTargets(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSubscriptions(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	playlists, err := r.subscriptions.UserPlaylists(ctx, 0, cmd.Int("limit"), !cmd.Bool("all"))
	if err != nil {
		return err
	}

	data, err := formatter.RenderPlaylists(playlists, format)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlainHeader("Your playlists")
	}
	return r.writeBytes(data)
}

// SubscriptionsAdd subscribes an existing or new managed playlist to a source playlist.
func (r *Runner) SubscriptionsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSubscriptions(); err != nil {
		return err
	}
	if err := r.requireSource(); err != nil {
		return err
	}

	sourceID := strings.TrimSpace(cmd.StringArg("source-id"))
	if sourceID == "" {
		return fmt.Errorf("%w: source playlist id", shared.ErrMissingArgument)
	}

	managedID, name := cmd.String("managed-id"), strings.TrimSpace(cmd.String("name"))
	switch {
	case managedID == "" && name == "":
		return fmt.Errorf("%w: either --managed-id or --name must be provided", shared.ErrMissingArgument)
	case managedID != "" && name != "":
		return fmt.Errorf("%w: cannot specify both --managed-id and --name", shared.ErrInvalidFlag)
	}

	frequency, err := parseFrequency(cmd.String("frequency"))
	if err != nil {
		return err
	}
	mode, err := parseSyncMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	detail, err := r.source.PlaylistTracks(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("failed to look up source playlist: %w", err)
	}

	req := models.NewSubscribeRequest(models.RefFor(detail.Playlist))
	req.SyncFrequency = frequency
	req.SyncMode = mode
	req.SyncQuantityPerSource = cmd.Int("quantity")
	req.RunImmediateSync = !cmd.Bool("no-sync")
	req.ExplicitContentFilter = cmd.Bool("clean")
	req.TrackAgeLimit = cmd.Int("max-age")
	if managedID != "" {
		req.ManagedPlaylist = &models.PlaylistRef{ID: managedID}
	} else {
		req.NewPlaylistName = name
	}

	r.logger.Info("subscribing", "source", sourceID, "managed", managedID, "new", name, "frequency", frequency)
	resp, err := r.subscriptions.Subscribe(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Message)
	}

	r.writePlain("%s Subscribed to %s\n", ui.Styles.Mark(true), detail.Playlist.Name)
	if resp.Message != "" {
		r.writePlain("%s\n", ui.Styles.Help(resp.Message))
	}
	return nil
}

// SubscriptionsRemove removes a source playlist from a managed playlist.
func (r *Runner) SubscriptionsRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSubscriptions(); err != nil {
		return err
	}

	managedID, sourceID := cmd.StringArg("managed-id"), cmd.StringArg("source-id")
	if managedID == "" || sourceID == "" {
		return fmt.Errorf("%w: managed playlist id and source playlist id", shared.ErrMissingArgument)
	}

	resp, err := r.subscriptions.Unsubscribe(ctx, managedID, sourceID)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, resp.Message)
	}
	return r.writePlain("%s Unsubscribed %s from %s\n", ui.Styles.Mark(true), sourceID, managedID)
}

func parseFrequency(s string) (models.SyncFrequency, error) {
	switch f := models.SyncFrequency(strings.ToUpper(strings.TrimSpace(s))); f {
	case models.SyncDaily, models.SyncWeekly, models.SyncMonthly:
		return f, nil
	case "":
		return models.SyncWeekly, nil
	default:
		return "", fmt.Errorf("%w: frequency must be daily, weekly or monthly", shared.ErrInvalidFlag)
	}
}

func parseSyncMode(s string) (models.SyncMode, error) {
	switch m := models.SyncMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case models.SyncAppend, models.SyncReplace:
		return m, nil
	case "":
		return models.SyncAppend, nil
	default:
		return "", fmt.Errorf("%w: mode must be append or replace", shared.ErrInvalidFlag)
	}
}
