package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/services"
	"github.com/desertthunder/tunesub/internal/shared"
	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is the offset step between listing pages.
const DefaultPageSize = 20

// Snapshot is a point-in-time copy of the active feed.
type Snapshot struct {
	Mode          models.Mode              `json:"mode"`
	Discriminator string                   `json:"discriminator"`
	Offset        int                      `json:"offset"`
	Items         []models.PlaylistSummary `json:"items"`
	Exhausted     bool                     `json:"exhausted"`
	Loading       bool                     `json:"loading"`
	Err           error                    `json:"-"`
}

// feed is the state of the single active listing. A mode switch or refresh replaces it.
type feed struct {
	token     uint64
	disc      models.Discriminator
	offset    int
	items     []models.PlaylistSummary
	seen      map[string]struct{}
	exhausted bool
	loading   bool
	err       error
}

func newFeed(token uint64, d models.Discriminator) *feed {
	return &feed{token: token, disc: d, seen: make(map[string]struct{})}
}

// Session pages through browse or search results for one user.
//
// Exactly one feed is active at a time. Every reset bumps a token so that a response belonging
// to a replaced feed is dropped on arrival.
type Session struct {
	lister   services.PlaylistLister
	pageSize int
	logger   *log.Logger
	updates  chan<- Snapshot
	loads    singleflight.Group

	mu       sync.Mutex
	category string
	token    uint64
	feed     *feed
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithPageSize overrides the offset step.
func WithPageSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSessionLogger sets the session's logger.
func WithSessionLogger(l *log.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithUpdates publishes a snapshot after every state change. Sends never block; a full channel
// drops the update.
func WithUpdates(ch chan<- Snapshot) SessionOption {
	return func(s *Session) { s.updates = ch }
}

// NewSession starts in browse mode on category with an empty feed. Nothing is fetched until
// LoadNextPage or SetCategory is called.
func NewSession(lister services.PlaylistLister, category string, opts ...SessionOption) *Session {
	s := &Session{lister: lister, pageSize: DefaultPageSize, category: category}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	s.logger = shared.WithLogger(s.logger, "component", "feed")
	s.feed = newFeed(s.token, models.Browse(category))
	return s
}

// Mode returns the active feed's mode.
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed.disc.Mode
}

// Category returns the last selected browse category.
func (s *Session) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// Snapshot copies the active feed.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	f := s.feed
	return Snapshot{
		Mode:          f.disc.Mode,
		Discriminator: f.disc.Value,
		Offset:        f.offset,
		Items:         append([]models.PlaylistSummary(nil), f.items...),
		Exhausted:     f.exhausted,
		Loading:       f.loading,
		Err:           f.err,
	}
}

// resetLocked replaces the active feed. Callers must hold s.mu.
func (s *Session) resetLocked(d models.Discriminator) {
	s.token++
	s.feed = newFeed(s.token, d)
	s.logger.Debug("feed reset", "feed", d.String(), "token", s.token)
}

// SetCategory switches the browse category and loads its first page.
// It does nothing while a search is active.
func (s *Session) SetCategory(ctx context.Context, category string) error {
	s.mu.Lock()
	if s.feed.disc.Mode == models.ModeSearch {
		s.mu.Unlock()
		s.logger.Debug("category change ignored during search", "category", category)
		return nil
	}
	s.category = category
	s.resetLocked(models.Browse(category))
	s.mu.Unlock()

	s.publish()
	return s.LoadNextPage(ctx)
}

// EnterSearch switches to a fresh search feed for query. Blank queries are rejected.
func (s *Session) EnterSearch(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return shared.ErrEmptyQuery
	}

	s.mu.Lock()
	s.resetLocked(models.Search(query))
	s.mu.Unlock()

	s.publish()
	return nil
}

// ExitSearch returns to a fresh browse feed for the last selected category.
func (s *Session) ExitSearch() {
	s.mu.Lock()
	s.resetLocked(models.Browse(s.category))
	s.mu.Unlock()

	s.publish()
}

// Refresh resets the active feed, keeping its mode and discriminator, and loads the first page.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.resetLocked(s.feed.disc)
	s.mu.Unlock()

	s.publish()
	return s.LoadNextPage(ctx)
}

// LoadNextPage fetches the next page of the active feed and appends the unseen playlists.
//
// It does nothing once the feed is exhausted. Calls made while a page is loading wait for that
// load and share its result instead of requesting again. A failed load leaves the feed as it
// was and returns an error wrapping [shared.ErrListingFailed].
func (s *Session) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	if s.feed.exhausted {
		s.mu.Unlock()
		return nil
	}
	key := strconv.FormatUint(s.feed.token, 10)
	s.mu.Unlock()

	_, err, joined := s.loads.Do(key, func() (any, error) {
		return nil, s.load(ctx)
	})
	if joined {
		s.logger.Debug("joined in-flight load", "token", key)
	}
	return err
}

func (s *Session) load(ctx context.Context) error {
	s.mu.Lock()
	f := s.feed
	if f.exhausted {
		s.mu.Unlock()
		return nil
	}
	disc, offset := f.disc, f.offset
	f.loading = true
	s.mu.Unlock()
	s.publish()

	page, err := s.lister.ListPlaylists(ctx, disc, offset)

	s.mu.Lock()
	if s.feed.token != f.token {
		s.mu.Unlock()
		s.logger.Debug("discarded stale page", "feed", disc.String(), "offset", offset)
		return nil
	}
	f.loading = false

	if err != nil {
		f.err = err
		s.mu.Unlock()
		s.publish()
		s.logger.Warn("page load failed", "feed", disc.String(), "offset", offset, "err", err)
		return fmt.Errorf("%w: %w", shared.ErrListingFailed, err)
	}

	added := 0
	for _, p := range page {
		if _, dup := f.seen[p.ID]; dup {
			continue
		}
		f.seen[p.ID] = struct{}{}
		f.items = append(f.items, p)
		added++
	}
	if len(page) == 0 || added == 0 {
		f.exhausted = true
	}
	f.offset += s.pageSize
	f.err = nil
	s.mu.Unlock()

	s.logger.Debug("page loaded", "feed", disc.String(), "offset", offset, "received", len(page), "added", added)
	s.publish()
	return nil
}

func (s *Session) publish() {
	if s.updates == nil {
		return
	}
	snap := s.Snapshot()
	select {
	case s.updates <- snap:
	default:
	}
}
