package preview

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/matching"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/services"
	"github.com/desertthunder/tunesub/internal/shared"
	"golang.org/x/sync/singleflight"
)

const (
	artistTitleLimit = 10
	titleOnlyLimit   = 15
)

// Resolver finds preview locators for tracks and owns the single active playback.
type Resolver struct {
	catalog    services.Catalog
	player     Player
	cache      *Cache
	logger     *log.Logger
	onComplete func(trackID string)
	lookups    singleflight.Group

	mu     sync.Mutex // guards active; held across player Stop/Start so handoffs never overlap
	active *session
}

// Option configures a [Resolver].
type Option func(*Resolver)

// WithCache injects the outcome cache, letting callers scope it to a browsing session.
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithCompletionHook registers fn to run after a preview finishes on its own.
func WithCompletionHook(fn func(trackID string)) Option {
	return func(r *Resolver) { r.onComplete = fn }
}

// NewResolver creates a resolver over catalog. player may be nil when only Resolve is used.
func NewResolver(catalog services.Catalog, player Player, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, player: player}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
	}
	r.logger = shared.WithLogger(r.logger, "component", "preview")
	return r
}

// Resolve returns the preview outcome for track, searching the catalog only on a cache miss.
//
// Catalog failures count as zero candidates, so Resolve never fails. Concurrent calls for the
// same uncached track share one lookup. A lookup cut short by ctx is returned but not cached.
func (r *Resolver) Resolve(ctx context.Context, track models.TrackRef) models.PreviewOutcome {
	if o, ok := r.cache.Get(track.ID); ok {
		return o
	}

	v, _, _ := r.lookups.Do(track.ID, func() (any, error) {
		if o, ok := r.cache.Get(track.ID); ok {
			return o, nil
		}
		o := r.lookup(ctx, track)
		if ctx.Err() != nil && !o.Found {
			return o, nil
		}
		return r.cache.Put(o), nil
	})
	return v.(models.PreviewOutcome)
}

func (r *Resolver) lookup(ctx context.Context, track models.TrackRef) models.PreviewOutcome {
	target := matching.Target{Title: track.Title, Artist: track.PrimaryArtist()}
	strategies := []struct {
		query string
		limit int
	}{
		{query: strings.TrimSpace(track.PrimaryArtist() + " " + track.Title), limit: artistTitleLimit},
		{query: strings.TrimSpace(track.Title), limit: titleOnlyLimit},
	}

	for i, s := range strategies {
		if s.query == "" {
			continue
		}

		candidates, err := r.catalog.SearchCatalog(ctx, s.query, s.limit)
		if err != nil {
			r.logger.Warn("catalog search failed", "track", track.ID, "query", s.query, "err", err)
			candidates = nil
		}

		res := matching.BestMatch(target, candidates)
		for _, sc := range res.Scored {
			r.logger.Debug("candidate", "title", sc.Candidate.Title, "artist", sc.Candidate.Artist, "score", fmt.Sprintf("%.2f", sc.Final))
		}
		if res.Matched() {
			r.logger.Debug("preview found", "track", track.ID, "strategy", i+1, "title", res.Best.Candidate.Title)
			return models.PreviewAt(track.ID, res.Locator())
		}
	}

	r.logger.Debug("no preview", "track", track.ID, "title", track.Title)
	return models.NoPreview(track.ID)
}

// Outcome returns the cached outcome for trackID, if it has been looked up.
func (r *Resolver) Outcome(trackID string) (models.PreviewOutcome, bool) {
	return r.cache.Get(trackID)
}

// Play starts the preview for track, stopping whatever was playing first.
//
// Playing the active track again, or a track without a preview, does nothing. A player failure
// is returned wrapped in [shared.ErrPlaybackFailed] and leaves nothing active.
func (r *Resolver) Play(ctx context.Context, track models.TrackRef) error {
	if id, ok := r.Active(); ok && id == track.ID {
		return nil
	}

	outcome := r.Resolve(ctx, track)
	if !outcome.Found {
		return nil
	}
	if r.player == nil {
		return fmt.Errorf("%w: no player configured", shared.ErrPlaybackFailed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil && r.active.trackID == track.ID {
		return nil
	}
	r.stopLocked()

	handle, err := r.player.Start(ctx, outcome.Locator, r.completed)
	if err != nil {
		r.logger.Warn("playback failed", "track", track.ID, "err", err)
		return fmt.Errorf("%w: %v", shared.ErrPlaybackFailed, err)
	}

	r.active = &session{trackID: track.ID, locator: outcome.Locator, handle: handle}
	r.logger.Info("playing preview", "track", track.ID, "title", track.Title)
	return nil
}

// Stop releases the active playback, if any.
func (r *Resolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Reset stops playback and forgets every cached outcome.
func (r *Resolver) Reset() {
	r.Stop()
	r.cache.Clear()
}

// Active returns the track id of the active playback.
func (r *Resolver) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", false
	}
	return r.active.trackID, true
}

func (r *Resolver) stopLocked() {
	if r.active == nil {
		return
	}
	if err := r.player.Stop(r.active.handle); err != nil {
		r.logger.Warn("failed to stop playback", "track", r.active.trackID, "err", err)
	}
	r.active = nil
}

// completed clears the session when its playback ends naturally. Stale handles are ignored.
func (r *Resolver) completed(handle string) {
	r.mu.Lock()
	if r.active == nil || r.active.handle != handle {
		r.mu.Unlock()
		return
	}
	trackID := r.active.trackID
	r.active = nil
	r.mu.Unlock()

	r.logger.Debug("preview finished", "track", trackID)
	if r.onComplete != nil {
		r.onComplete(trackID)
	}
}
