// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
)

// ListCall records one ListPlaylists invocation.
type ListCall struct {
	Discriminator models.Discriminator
	Offset        int
}

// MockLister is a test double for [services.PlaylistLister].
//
// Respond decides each page; when nil, Pages is consumed in order and an exhausted queue returns
// an empty page. Gate, when set, blocks every call until a value is received or the gate is closed.
type MockLister struct {
	mu      sync.Mutex
	Pages   [][]models.PlaylistSummary
	Respond func(d models.Discriminator, offset int) ([]models.PlaylistSummary, error)
	Gate    chan struct{}
	Started chan ListCall // optional, receives each call before it blocks on Gate
	calls   []ListCall
}

func (m *MockLister) ListPlaylists(ctx context.Context, d models.Discriminator, offset int) ([]models.PlaylistSummary, error) {
	call := ListCall{Discriminator: d, Offset: offset}
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- call
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.Respond != nil {
		return m.Respond(d, offset)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Pages) == 0 {
		return []models.PlaylistSummary{}, nil
	}
	page := m.Pages[0]
	m.Pages = m.Pages[1:]
	return page, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockLister) Calls() []ListCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ListCall(nil), m.calls...)
}

// MockTrackLister is a test double for [services.TrackLister].
type MockTrackLister struct {
	Detail *models.PlaylistDetail
	Err    error
}

func (m *MockTrackLister) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Detail, nil
}

// MockSource is a test double for [services.Source]: listings come from the embedded
// [MockLister] and playlist contents from Details.
type MockSource struct {
	MockLister
	Details map[string]*models.PlaylistDetail
}

func (m *MockSource) Name() string {
	return "mock"
}

func (m *MockSource) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if d, ok := m.Details[playlistID]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

// MockSubscriptions is a test double for [services.Subscriptions].
type MockSubscriptions struct {
	mu       sync.Mutex
	Managed  []models.ManagedPlaylist
	Owned    []models.PlaylistSummary
	Response *models.SubscribeResponse // defaults to a successful response
	Err      error
	requests []models.SubscribeRequest
	removed  []string
}

func (m *MockSubscriptions) ManagedPlaylists(ctx context.Context) ([]models.ManagedPlaylist, error) {
	return m.Managed, m.Err
}

func (m *MockSubscriptions) UserPlaylists(ctx context.Context, offset, limit int, ownedOnly bool) ([]models.PlaylistSummary, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && limit < len(m.Owned) {
		return m.Owned[:limit], nil
	}
	return m.Owned, nil
}

func (m *MockSubscriptions) Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.SubscribeResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.response()
}

func (m *MockSubscriptions) Unsubscribe(ctx context.Context, managedID, sourceID string) (*models.SubscribeResponse, error) {
	m.mu.Lock()
	m.removed = append(m.removed, managedID+"/"+sourceID)
	m.mu.Unlock()
	return m.response()
}

func (m *MockSubscriptions) response() (*models.SubscribeResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return &models.SubscribeResponse{Success: true, Message: "ok"}, nil
}

// Requests returns the subscribe requests received so far.
func (m *MockSubscriptions) Requests() []models.SubscribeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SubscribeRequest(nil), m.requests...)
}

// Removed returns "managed/source" pairs passed to Unsubscribe.
func (m *MockSubscriptions) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

// MockCatalog is a test double for [services.Catalog] keyed by exact query.
type MockCatalog struct {
	mu      sync.Mutex
	Results map[string][]models.Candidate
	Errors  map[string]error
	Delay   time.Duration
	queries []string
}

// CatalogQuery records a query and its limit as "query|limit".
func CatalogQuery(query string, limit int) string {
	return fmt.Sprintf("%s|%d", query, limit)
}

func (m *MockCatalog) SearchCatalog(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	m.mu.Lock()
	m.queries = append(m.queries, CatalogQuery(query, limit))
	m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if err, ok := m.Errors[query]; ok {
		return nil, err
	}
	return m.Results[query], nil
}

// Queries returns the recorded queries in call order.
func (m *MockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// MockPlayer is a test double for [preview.Player]. Events records "start:<locator>" and
// "stop:<handle>" in order.
type MockPlayer struct {
	mu        sync.Mutex
	StartErr  error
	events    []string
	callbacks map[string]func(string)
	next      int
}

func (m *MockPlayer) Start(ctx context.Context, locator string, onComplete func(handle string)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "start:"+locator)
	if m.StartErr != nil {
		return "", m.StartErr
	}
	m.next++
	handle := fmt.Sprintf("h%d", m.next)
	if m.callbacks == nil {
		m.callbacks = make(map[string]func(string))
	}
	m.callbacks[handle] = onComplete
	return handle, nil
}

func (m *MockPlayer) Stop(handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "stop:"+handle)
	delete(m.callbacks, handle)
	return nil
}

// Complete simulates the preview for handle finishing on its own.
func (m *MockPlayer) Complete(handle string) {
	m.mu.Lock()
	cb := m.callbacks[handle]
	delete(m.callbacks, handle)
	m.mu.Unlock()
	if cb != nil {
		cb(handle)
	}
}

// Events returns the recorded start/stop events.
func (m *MockPlayer) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

type manualTimer struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// ManualScheduler replaces time.AfterFunc in debounce tests. Timers only fire from Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// AfterFunc schedules fn after d of manual time and returns its cancel function.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.cancelled || t.fn == nil {
			return false
		}
		t.cancelled = true
		return true
	}
}

// Advance moves manual time forward by d and runs every timer that comes due, in order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	due := make([]*manualTimer, 0)
	rest := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.cancelled:
		case t.at <= s.now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	s.timers = rest
	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	fns := make([]func(), 0, len(due))
	for _, t := range due {
		fns = append(fns, t.fn)
		t.fn = nil
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Pending counts timers that have neither fired nor been cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Summaries builds playlist summaries with ids prefix1..prefixN.
func Summaries(prefix string, from, to int) []models.PlaylistSummary {
	out := make([]models.PlaylistSummary, 0, to-from+1)
	for i := from; i <= to; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		out = append(out, models.PlaylistSummary{ID: id, Name: "Playlist " + id, OwnerLabel: "owner"})
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)
