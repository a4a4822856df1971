package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	tu "github.com/desertthunder/tunesub/internal/testing"
)

func quietSession(lister *tu.MockLister, category string, opts ...SessionOption) *Session {
	opts = append([]SessionOption{WithSessionLogger(shared.NewLogger(&strings.Builder{}))}, opts...)
	return NewSession(lister, category, opts...)
}

func ids(items []models.PlaylistSummary) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestSessionPaging(t *testing.T) {
	t.Run("Pages Until Nothing New Arrives", func(t *testing.T) {
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{
			tu.Summaries("p", 1, 5),
			tu.Summaries("p", 1, 5),
		}}
		s := quietSession(lister, "popular")
		ctx := context.Background()

		if err := s.LoadNextPage(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snap := s.Snapshot()
		if len(snap.Items) != 5 || snap.Offset != 20 || snap.Exhausted {
			t.Fatalf("unexpected first page state: %+v", snap)
		}

		if err := s.LoadNextPage(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snap = s.Snapshot()
		if len(snap.Items) != 5 {
			t.Errorf("expected duplicates dropped, got %v", ids(snap.Items))
		}
		if !snap.Exhausted || snap.Offset != 40 {
			t.Errorf("expected exhausted at offset 40, got %+v", snap)
		}

		if err := s.LoadNextPage(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		calls := lister.Calls()
		if len(calls) != 2 {
			t.Fatalf("expected no request after exhaustion, got %d calls", len(calls))
		}
		if calls[0].Offset != 0 || calls[1].Offset != 20 {
			t.Errorf("unexpected offsets %+v", calls)
		}
		if calls[0].Discriminator != models.Browse("popular") {
			t.Errorf("expected browse popular, got %s", calls[0].Discriminator)
		}
	})

	t.Run("Partial Overlap Keeps Only New Items", func(t *testing.T) {
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{
			tu.Summaries("p", 1, 3),
			tu.Summaries("p", 3, 6),
		}}
		s := quietSession(lister, "popular")
		s.LoadNextPage(context.Background())
		s.LoadNextPage(context.Background())

		got := ids(s.Snapshot().Items)
		want := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, got)
		}
		if s.Snapshot().Exhausted {
			t.Error("expected feed to stay open")
		}
	})

	t.Run("Empty Page Exhausts Feed", func(t *testing.T) {
		s := quietSession(&tu.MockLister{}, "popular")
		if err := s.LoadNextPage(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap := s.Snapshot(); !snap.Exhausted || len(snap.Items) != 0 {
			t.Errorf("expected empty exhausted feed, got %+v", snap)
		}
	})

	t.Run("Failure Leaves State Untouched", func(t *testing.T) {
		fail := true
		lister := &tu.MockLister{Respond: func(d models.Discriminator, offset int) ([]models.PlaylistSummary, error) {
			if fail {
				return nil, errors.New("connection reset")
			}
			return tu.Summaries("p", 1, 2), nil
		}}
		s := quietSession(lister, "popular")

		err := s.LoadNextPage(context.Background())
		if !errors.Is(err, shared.ErrListingFailed) {
			t.Fatalf("expected ErrListingFailed, got %v", err)
		}
		snap := s.Snapshot()
		if snap.Offset != 0 || len(snap.Items) != 0 || snap.Exhausted || snap.Loading {
			t.Errorf("expected untouched feed, got %+v", snap)
		}
		if snap.Err == nil {
			t.Error("expected error recorded on snapshot")
		}

		fail = false
		if err := s.LoadNextPage(context.Background()); err != nil {
			t.Fatalf("expected retry to succeed, got %v", err)
		}
		if snap := s.Snapshot(); snap.Offset != 20 || len(snap.Items) != 2 || snap.Err != nil {
			t.Errorf("unexpected state after retry: %+v", snap)
		}
	})
}

func TestSessionModes(t *testing.T) {
	t.Run("Stale Response Is Discarded", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		lister := &tu.MockLister{Respond: func(d models.Discriminator, offset int) ([]models.PlaylistSummary, error) {
			if d.Value == "popular" {
				close(started)
				<-release
				return tu.Summaries("pop", 1, 5), nil
			}
			return tu.Summaries("mood", 1, 3), nil
		}}
		s := quietSession(lister, "popular")

		done := make(chan error, 1)
		go func() { done <- s.LoadNextPage(context.Background()) }()
		<-started

		if err := s.SetCategory(context.Background(), "mood"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(release)
		if err := <-done; err != nil {
			t.Fatalf("expected stale load to return nil, got %v", err)
		}

		snap := s.Snapshot()
		if snap.Discriminator != "mood" {
			t.Errorf("expected mood feed, got %s", snap.Discriminator)
		}
		for _, p := range snap.Items {
			if strings.HasPrefix(p.ID, "pop") {
				t.Fatalf("stale item %s leaked into feed", p.ID)
			}
		}
		if len(snap.Items) != 3 || snap.Offset != 20 {
			t.Errorf("unexpected mood feed: %+v", snap)
		}
	})

	t.Run("Concurrent Loads Share One Request", func(t *testing.T) {
		gate := make(chan struct{})
		lister := &tu.MockLister{
			Pages:   [][]models.PlaylistSummary{tu.Summaries("p", 1, 5)},
			Gate:    gate,
			Started: make(chan tu.ListCall, 4),
		}
		s := quietSession(lister, "popular")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.LoadNextPage(context.Background())
		}()
		<-lister.Started
		go func() {
			defer wg.Done()
			s.LoadNextPage(context.Background())
		}()
		time.Sleep(50 * time.Millisecond)
		close(gate)
		wg.Wait()

		if n := len(lister.Calls()); n != 1 {
			t.Errorf("expected one request, got %d", n)
		}
		if snap := s.Snapshot(); snap.Offset != 20 || len(snap.Items) != 5 {
			t.Errorf("unexpected state: %+v", snap)
		}
	})

	t.Run("Category Change Ignored While Searching", func(t *testing.T) {
		lister := &tu.MockLister{}
		s := quietSession(lister, "popular")
		if err := s.EnterSearch("lofi"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.SetCategory(context.Background(), "mood"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Mode() != models.ModeSearch || s.Category() != "popular" {
			t.Errorf("expected search to continue with popular remembered, got %s/%s", s.Mode(), s.Category())
		}
		if len(lister.Calls()) != 0 {
			t.Errorf("expected no requests, got %v", lister.Calls())
		}
	})

	t.Run("Blank Search Rejected", func(t *testing.T) {
		s := quietSession(&tu.MockLister{}, "popular")
		if err := s.EnterSearch("   "); !errors.Is(err, shared.ErrEmptyQuery) {
			t.Errorf("expected ErrEmptyQuery, got %v", err)
		}
		if s.Mode() != models.ModeBrowse {
			t.Errorf("expected browse mode, got %s", s.Mode())
		}
	})

	t.Run("Search Then Exit Returns To Category", func(t *testing.T) {
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{
			tu.Summaries("b", 1, 2),
			tu.Summaries("s", 1, 2),
			tu.Summaries("b", 1, 2),
		}}
		s := quietSession(lister, "popular")
		ctx := context.Background()

		if err := s.SetCategory(ctx, "mood"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := s.EnterSearch("  lofi beats "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap := s.Snapshot(); len(snap.Items) != 0 || snap.Offset != 0 {
			t.Errorf("expected fresh search feed, got %+v", snap)
		}
		s.LoadNextPage(ctx)

		s.ExitSearch()
		s.LoadNextPage(ctx)

		calls := lister.Calls()
		if len(calls) != 3 {
			t.Fatalf("expected 3 calls, got %v", calls)
		}
		if calls[1].Discriminator != models.Search("lofi beats") {
			t.Errorf("expected trimmed search, got %s", calls[1].Discriminator)
		}
		if calls[2].Discriminator != models.Browse("mood") || calls[2].Offset != 0 {
			t.Errorf("expected browse mood from offset 0, got %+v", calls[2])
		}
	})

	t.Run("Refresh Restarts Feed", func(t *testing.T) {
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{
			tu.Summaries("p", 1, 5),
			{},
			tu.Summaries("q", 1, 2),
		}}
		s := quietSession(lister, "popular")
		ctx := context.Background()
		s.LoadNextPage(ctx)
		s.LoadNextPage(ctx)
		if !s.Snapshot().Exhausted {
			t.Fatal("expected exhausted feed before refresh")
		}

		if err := s.Refresh(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		snap := s.Snapshot()
		if snap.Exhausted || snap.Offset != 20 || strings.Join(ids(snap.Items), ",") != "q1,q2" {
			t.Errorf("unexpected refreshed feed: %+v", snap)
		}
		if calls := lister.Calls(); calls[2].Offset != 0 {
			t.Errorf("expected refresh from offset 0, got %d", calls[2].Offset)
		}
	})

	t.Run("Publishes Snapshots", func(t *testing.T) {
		updates := make(chan Snapshot, 16)
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{tu.Summaries("p", 1, 3)}}
		s := quietSession(lister, "popular", WithUpdates(updates))

		if err := s.SetCategory(context.Background(), "popular"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(updates)

		var last Snapshot
		sawLoading := false
		for snap := range updates {
			if snap.Loading {
				sawLoading = true
			}
			last = snap
		}
		if !sawLoading {
			t.Error("expected a loading snapshot")
		}
		if last.Loading || len(last.Items) != 3 {
			t.Errorf("unexpected final snapshot: %+v", last)
		}
	})

	t.Run("Page Size Option", func(t *testing.T) {
		lister := &tu.MockLister{Pages: [][]models.PlaylistSummary{tu.Summaries("p", 1, 2)}}
		s := quietSession(lister, "popular", WithPageSize(50))
		s.LoadNextPage(context.Background())
		if off := s.Snapshot().Offset; off != 50 {
			t.Errorf("expected offset 50, got %d", off)
		}
	})
}
