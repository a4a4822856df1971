package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/tunesub/internal/feed"
	"github.com/desertthunder/tunesub/internal/formatter"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/desertthunder/tunesub/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse lists curated playlists for a category.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	category := cmd.String("category")
	if category == "" {
		category = r.config.Browse.DefaultCategory
	}
	value, err := r.resolveCategory(category)
	if err != nil {
		return err
	}

	r.logger.Info("browsing playlists", "category", category, "option", value, "source", r.source.Name())

	session := r.newSession(value)
	if err := session.SetCategory(ctx, value); err != nil {
		return err
	}
	if err := loadPages(ctx, session, cmd.Int("pages")-1); err != nil {
		return err
	}
	return r.writeFeed(session.Snapshot(), format)
}

// Search lists playlists matching a query. With --live, search text is read line by line from
// stdin and debounced the same way an interactive search box would be.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSource(); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.Bool("live") {
		return r.searchLive(ctx, format)
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	r.logger.Info("searching playlists", "query", query, "source", r.source.Name())

	session := r.newSession(r.defaultOption())
	if err := session.EnterSearch(query); err != nil {
		return err
	}
	if err := loadPages(ctx, session, cmd.Int("pages")); err != nil {
		return err
	}
	return r.writeFeed(session.Snapshot(), format)
}

func (r *Runner) searchLive(ctx context.Context, format string) error {
	updates := make(chan feed.Snapshot, 16)
	session := r.newSession(r.defaultOption(), feed.WithUpdates(updates))
	debouncer := feed.NewDebouncer(ctx, session,
		feed.WithDelay(r.config.DebounceDelay()),
		feed.WithGrace(r.config.GraceDelay()),
		feed.WithDebounceLogger(r.logger),
		feed.WithErrorHandler(func(err error) {
			r.logger.Error("search failed", "err", err)
		}),
	)

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for snap := range updates {
			if snap.Loading || snap.Err != nil || (len(snap.Items) == 0 && !snap.Exhausted) {
				continue
			}
			if err := r.writeFeed(snap, format); err != nil {
				r.logger.Error("failed to write results", "err", err)
			}
		}
	}()

	scanner := bufio.NewScanner(r.input)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		debouncer.Input(scanner.Text())
	}

	flushErr := debouncer.Flush()
	debouncer.Close()
	close(updates)
	<-printed

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read search input: %w", err)
	}
	return flushErr
}

// Categories prints the browse taxonomy.
func (r *Runner) Categories(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(r.config.Categories, true)
	}

	r.writePlainHeader("Categories")
	for _, c := range r.config.Categories {
		label := c.Name
		if c.ID == r.config.Browse.DefaultCategory {
			label += " " + ui.Styles.Help("(default)")
		}
		r.writePlain("%s  %s\n", ui.Styles.Title(c.ID), label)
		for i, o := range c.Options {
			marker := " "
			if i == 0 {
				marker = "*"
			}
			r.writePlain("  %s %-10s %s\n", marker, o.ID, o.Name)
		}
	}
	r.writePlainln("%s", ui.Styles.Help("* option used when browsing the category itself"))
	return nil
}

func (r *Runner) resolveCategory(id string) (string, error) {
	value, ok := r.config.Categories.Resolve(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrUnknownCategory, id)
	}
	return value, nil
}

// defaultOption is the browse discriminator a fresh session returns to after a search.
func (r *Runner) defaultOption() string {
	if value, ok := r.config.Categories.Resolve(r.config.Browse.DefaultCategory); ok {
		return value
	}
	return r.config.Browse.DefaultCategory
}

func (r *Runner) newSession(category string, opts ...feed.SessionOption) *feed.Session {
	opts = append([]feed.SessionOption{
		feed.WithPageSize(r.config.Browse.PageSize),
		feed.WithSessionLogger(r.logger),
	}, opts...)
	return feed.NewSession(r.source, category, opts...)
}

// loadPages loads up to n more pages, stopping early once the feed is exhausted.
func loadPages(ctx context.Context, s *feed.Session, n int) error {
	for range max(n, 0) {
		if s.Snapshot().Exhausted {
			return nil
		}
		if err := s.LoadNextPage(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writeFeed(snap feed.Snapshot, format string) error {
	data, err := formatter.RenderPlaylists(snap.Items, format)
	if err != nil {
		return err
	}
	if format != formatter.FormatText {
		return r.writeBytes(data)
	}

	title := "Browse: " + snap.Discriminator
	if snap.Mode == models.ModeSearch {
		title = "Search: " + snap.Discriminator
	}
	r.writePlainHeader(title)
	if err := r.writeBytes(data); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.FeedStatus(snap.Mode, snap.Discriminator, len(snap.Items), snap.Exhausted))
}
