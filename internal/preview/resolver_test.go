package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tunesub/internal/audio"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	tu "github.com/desertthunder/tunesub/internal/testing"
)

func track(id, title, artist string) models.TrackRef {
	return models.TrackRef{ID: id, Title: title, ArtistNames: []string{artist}}
}

func hit(title, artist, url string) models.Candidate {
	return models.Candidate{Title: title, Artist: artist, PreviewURL: url}
}

func newTestResolver(catalog *tu.MockCatalog, player *tu.MockPlayer, opts ...Option) *Resolver {
	opts = append([]Option{WithLogger(shared.NewLogger(&strings.Builder{}))}, opts...)
	if player == nil {
		return NewResolver(catalog, nil, opts...)
	}
	return NewResolver(catalog, player, opts...)
}

func TestResolve(t *testing.T) {
	good4u := track("t1", "good 4 u", "Olivia Rodrigo")

	t.Run("Artist And Title Strategy Matches", func(t *testing.T) {
		catalog := &tu.MockCatalog{Results: map[string][]models.Candidate{
			"Olivia Rodrigo good 4 u": {
				hit("good 4 u", "Olivia Rodrigo", "U1"),
				hit("good 4 u (Karaoke Version)", "Sing King", "U2"),
			},
		}}
		r := newTestResolver(catalog, nil)

		got := r.Resolve(context.Background(), good4u)
		if !got.Found || got.Locator != "U1" {
			t.Errorf("expected U1, got %+v", got)
		}
		if q := catalog.Queries(); len(q) != 1 || q[0] != tu.CatalogQuery("Olivia Rodrigo good 4 u", 10) {
			t.Errorf("expected a single artist+title query, got %v", q)
		}
	})

	t.Run("Falls Back To Title Only", func(t *testing.T) {
		catalog := &tu.MockCatalog{Results: map[string][]models.Candidate{
			"good 4 u": {hit("good 4 u", "Olivia Rodrigo", "U3")},
		}}
		r := newTestResolver(catalog, nil)

		got := r.Resolve(context.Background(), good4u)
		if got.Locator != "U3" {
			t.Errorf("expected U3, got %+v", got)
		}
		want := []string{tu.CatalogQuery("Olivia Rodrigo good 4 u", 10), tu.CatalogQuery("good 4 u", 15)}
		if q := catalog.Queries(); len(q) != 2 || q[0] != want[0] || q[1] != want[1] {
			t.Errorf("expected %v, got %v", want, q)
		}
	})

	t.Run("Nothing Usable Is Cached As Not Found", func(t *testing.T) {
		catalog := &tu.MockCatalog{Results: map[string][]models.Candidate{
			"Olivia Rodrigo good 4 u": {hit("good 4 u", "Olivia Rodrigo", "")},
		}}
		r := newTestResolver(catalog, nil)

		if _, ok := r.Outcome("t1"); ok {
			t.Fatal("expected no outcome before lookup")
		}
		got := r.Resolve(context.Background(), good4u)
		if got.Found {
			t.Errorf("expected not found, got %+v", got)
		}
		cached, ok := r.Outcome("t1")
		if !ok || cached.Found {
			t.Errorf("expected cached negative outcome, got %+v (ok=%v)", cached, ok)
		}
	})

	t.Run("Catalog Errors Are Swallowed", func(t *testing.T) {
		catalog := &tu.MockCatalog{Errors: map[string]error{
			"Olivia Rodrigo good 4 u": errors.New("timeout"),
			"good 4 u":                errors.New("timeout"),
		}}
		r := newTestResolver(catalog, nil)

		if got := r.Resolve(context.Background(), good4u); got.Found {
			t.Errorf("expected not found, got %+v", got)
		}
		if len(catalog.Queries()) != 2 {
			t.Errorf("expected both strategies attempted, got %v", catalog.Queries())
		}
	})

	t.Run("Second Resolve Makes No Catalog Calls", func(t *testing.T) {
		catalog := &tu.MockCatalog{Results: map[string][]models.Candidate{
			"Olivia Rodrigo good 4 u": {hit("good 4 u", "Olivia Rodrigo", "U1")},
		}}
		r := newTestResolver(catalog, nil)

		first := r.Resolve(context.Background(), good4u)
		second := r.Resolve(context.Background(), good4u)
		if first != second {
			t.Errorf("expected identical outcomes, got %+v and %+v", first, second)
		}
		if len(catalog.Queries()) != 1 {
			t.Errorf("expected one catalog call, got %v", catalog.Queries())
		}
	})

	t.Run("Concurrent Resolves Share One Lookup", func(t *testing.T) {
		catalog := &tu.MockCatalog{
			Results: map[string][]models.Candidate{"Olivia Rodrigo good 4 u": {hit("good 4 u", "Olivia Rodrigo", "U1")}},
			Delay:   20 * time.Millisecond,
		}
		r := newTestResolver(catalog, nil)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := r.Resolve(context.Background(), good4u); got.Locator != "U1" {
					t.Errorf("expected U1, got %+v", got)
				}
			}()
		}
		wg.Wait()

		if len(catalog.Queries()) != 1 {
			t.Errorf("expected one catalog call, got %d", len(catalog.Queries()))
		}
	})

	t.Run("Track Without Artist Searches Title", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r := newTestResolver(catalog, nil)

		r.Resolve(context.Background(), models.TrackRef{ID: "t9", Title: "Intro"})
		q := catalog.Queries()
		if len(q) != 2 || q[0] != tu.CatalogQuery("Intro", 10) {
			t.Errorf("unexpected queries %v", q)
		}
	})

	t.Run("Cancelled Lookup Is Not Cached", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		r := newTestResolver(catalog, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r.Resolve(ctx, good4u)
		if _, ok := r.Outcome("t1"); ok {
			t.Error("expected no cached outcome after cancellation")
		}
	})
}

func TestPlayback(t *testing.T) {
	catalog := func() *tu.MockCatalog {
		return &tu.MockCatalog{Results: map[string][]models.Candidate{
			"Artist A Song A": {hit("Song A", "Artist A", "UA")},
			"Artist B Song B": {hit("Song B", "Artist B", "UB")},
		}}
	}
	trackA := track("a", "Song A", "Artist A")
	trackB := track("b", "Song B", "Artist B")

	t.Run("Play Starts And Marks Active", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		if err := r.Play(context.Background(), trackA); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id, ok := r.Active(); !ok || id != "a" {
			t.Errorf("expected a active, got %q (%v)", id, ok)
		}
		if ev := player.Events(); len(ev) != 1 || ev[0] != "start:UA" {
			t.Errorf("unexpected events %v", ev)
		}
	})

	t.Run("Handoff Stops Previous Before Starting Next", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		r.Play(context.Background(), trackB)
		r.Play(context.Background(), trackA)

		want := []string{"start:UB", "stop:h1", "start:UA"}
		ev := player.Events()
		if len(ev) != len(want) {
			t.Fatalf("expected %v, got %v", want, ev)
		}
		for i := range want {
			if ev[i] != want[i] {
				t.Errorf("event %d: expected %s, got %s", i, want[i], ev[i])
			}
		}
		if id, _ := r.Active(); id != "a" {
			t.Errorf("expected a active, got %s", id)
		}
	})

	t.Run("Replaying Active Track Is A No-op", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		r.Play(context.Background(), trackA)
		r.Play(context.Background(), trackA)
		if ev := player.Events(); len(ev) != 1 {
			t.Errorf("expected one start, got %v", ev)
		}
	})

	t.Run("Track Without Preview Does Not Interrupt", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		r.Play(context.Background(), trackA)
		if err := r.Play(context.Background(), track("z", "Unknown", "Nobody")); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if id, _ := r.Active(); id != "a" {
			t.Errorf("expected a to keep playing, got %s", id)
		}
	})

	t.Run("Start Failure Leaves Nothing Active", func(t *testing.T) {
		player := &tu.MockPlayer{StartErr: errors.New("no audio device")}
		r := newTestResolver(catalog(), player)

		err := r.Play(context.Background(), trackA)
		if !errors.Is(err, shared.ErrPlaybackFailed) {
			t.Errorf("expected ErrPlaybackFailed, got %v", err)
		}
		if _, ok := r.Active(); ok {
			t.Error("expected no active session")
		}
		if o, ok := r.Outcome("a"); !ok || !o.Found {
			t.Error("expected outcome to stay cached after playback failure")
		}
	})

	t.Run("Natural Completion Clears Session", func(t *testing.T) {
		player := &tu.MockPlayer{}
		finished := make(chan string, 1)
		r := newTestResolver(catalog(), player, WithCompletionHook(func(id string) { finished <- id }))

		r.Play(context.Background(), trackA)
		player.Complete("h1")

		if _, ok := r.Active(); ok {
			t.Error("expected session cleared after completion")
		}
		select {
		case id := <-finished:
			if id != "a" {
				t.Errorf("expected completion for a, got %s", id)
			}
		default:
			t.Error("expected completion hook to run")
		}
	})

	t.Run("Stale Completion Is Ignored", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		r.Play(context.Background(), trackA)
		r.completed("h1-old")
		if id, ok := r.Active(); !ok || id != "a" {
			t.Errorf("expected a to stay active, got %q", id)
		}
	})

	t.Run("Stop Is Idempotent", func(t *testing.T) {
		player := &tu.MockPlayer{}
		r := newTestResolver(catalog(), player)

		r.Play(context.Background(), trackA)
		r.Stop()
		r.Stop()
		if ev := player.Events(); len(ev) != 2 || ev[1] != "stop:h1" {
			t.Errorf("expected a single stop, got %v", ev)
		}
		if _, ok := r.Active(); ok {
			t.Error("expected no active session")
		}
	})

	t.Run("Reset Stops And Clears Cache", func(t *testing.T) {
		player := &tu.MockPlayer{}
		c := catalog()
		r := newTestResolver(c, player)

		r.Play(context.Background(), trackA)
		r.Reset()

		if _, ok := r.Active(); ok {
			t.Error("expected no active session")
		}
		if _, ok := r.Outcome("a"); ok {
			t.Error("expected cache cleared")
		}

		r.Resolve(context.Background(), trackA)
		if len(c.Queries()) != 2 {
			t.Errorf("expected a fresh lookup after reset, got %v", c.Queries())
		}
	})

	t.Run("No Player Configured", func(t *testing.T) {
		r := newTestResolver(catalog(), nil)
		if err := r.Play(context.Background(), trackA); !errors.Is(err, shared.ErrPlaybackFailed) {
			t.Errorf("expected ErrPlaybackFailed, got %v", err)
		}
	})

	t.Run("Play Outlives Its Context", func(t *testing.T) {
		logger := shared.NewLogger(&strings.Builder{})
		player := audio.NewExecPlayer(audio.ExecOpts{Command: "sleep", Logger: logger})
		cat := &tu.MockCatalog{Results: map[string][]models.Candidate{
			"Artist A Song A": {hit("Song A", "Artist A", "30")},
		}}
		r := NewResolver(cat, player, WithLogger(logger))
		defer r.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := r.Play(ctx, trackA); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)

		if id, ok := r.Active(); !ok || id != "a" {
			t.Errorf("expected a still active, got %q (%v)", id, ok)
		}
		if player.Running() != 1 {
			t.Errorf("expected the preview process alive, got %d running", player.Running())
		}

		r.Stop()
		if _, ok := r.Active(); ok {
			t.Error("expected nothing active after stop")
		}
	})
}

func TestCache(t *testing.T) {
	c := NewCache()
	first := c.Put(models.NoPreview("t1"))
	second := c.Put(models.PreviewAt("t1", "U1"))

	if first != second {
		t.Errorf("expected first write to win, got %+v", second)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
	c.Clear()
	if _, ok := c.Get("t1"); ok {
		t.Error("expected cache empty after clear")
	}

	t.Run("Injected Cache Is Shared", func(t *testing.T) {
		cache := NewCache()
		catalog := &tu.MockCatalog{}
		first := newTestResolver(catalog, nil, WithCache(cache))
		second := newTestResolver(catalog, nil, WithCache(cache))

		first.Resolve(context.Background(), track("t9", "Nothing", "Nobody"))
		if _, ok := second.Outcome("t9"); !ok {
			t.Error("expected outcome visible through the shared cache")
		}
		if n := len(catalog.Queries()); n != 2 {
			t.Errorf("expected one lookup sequence, got %d queries", n)
		}
	})
}
