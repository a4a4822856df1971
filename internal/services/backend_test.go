package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	tu "github.com/desertthunder/tunesub/internal/testing"
)

const playlistsJSON = `[
	{"id": "p1", "name": "Today's Top Hits", "owner": {"id": "spotify", "display_name": "Spotify"},
	 "images": [{"url": "https://img/1"}], "tracks": {"total": 50},
	 "external_urls": {"spotify": "https://open.spotify.com/playlist/p1"}},
	{"id": "p2", "name": "No Owner"},
	{"id": "", "name": "No ID", "owner": {"id": "x"}},
	{"id": "p3", "name": "Owner Without Display Name", "owner": {"id": "user42"}}
]`

func newTestBackend(t *testing.T, h http.HandlerFunc) *BackendService {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewBackendService(BackendOpts{
		BaseURL:     server.URL,
		TokenSource: StaticToken("secret-token"),
		Logger:      shared.NewLogger(&strings.Builder{}),
	})
}

func TestBackendService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			b := NewBackendService(BackendOpts{})
			if b.baseURL != "http://localhost:3000" {
				t.Errorf("expected default base url, got %s", b.baseURL)
			}
			if b.Name() != "backend" {
				t.Errorf("expected name backend, got %s", b.Name())
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			b := NewBackendService(BackendOpts{BaseURL: "http://api.example.com/"})
			if b.baseURL != "http://api.example.com" {
				t.Errorf("expected trimmed base url, got %s", b.baseURL)
			}
		})

		t.Run("Empty Token Has No Source", func(t *testing.T) {
			if StaticToken("") != nil {
				t.Error("expected nil token source for empty token")
			}
		})
	})

	t.Run("ListPlaylists", func(t *testing.T) {
		t.Run("Browse Uses Curated Endpoint With Bearer Token", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/spotify/curated-playlists" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("category"); got != "mood" {
					t.Errorf("expected category mood, got %s", got)
				}
				if got := r.URL.Query().Get("offset"); got != "40" {
					t.Errorf("expected offset 40, got %s", got)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
					t.Errorf("expected bearer header, got %q", got)
				}
				w.Write([]byte(playlistsJSON))
			})

			items, err := b.ListPlaylists(context.Background(), models.Browse("mood"), 40)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 2 {
				t.Fatalf("expected malformed playlists filtered to 2, got %d", len(items))
			}
			first := items[0]
			if first.OwnerLabel != "Spotify" || first.TrackCount != 50 || first.ImageURL != "https://img/1" {
				t.Errorf("unexpected mapping: %+v", first)
			}
			if first.ExternalURL != "https://open.spotify.com/playlist/p1" {
				t.Errorf("unexpected external url %s", first.ExternalURL)
			}
			if items[1].OwnerLabel != "user42" {
				t.Errorf("expected owner id fallback, got %s", items[1].OwnerLabel)
			}
		})

		t.Run("Search Uses Search Endpoint With Trimmed Text", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/spotify/search" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("searchText"); got != "lofi beats" {
					t.Errorf("expected trimmed search text, got %q", got)
				}
				w.Write([]byte(`[]`))
			})

			items, err := b.ListPlaylists(context.Background(), models.Search("  lofi beats "), 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(items) != 0 {
				t.Errorf("expected empty page, got %d", len(items))
			}
		})

		t.Run("Empty Search Is Rejected Without A Request", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			})
			if _, err := b.SearchPlaylists(context.Background(), "   ", 0); !errors.Is(err, shared.ErrEmptyQuery) {
				t.Errorf("expected ErrEmptyQuery, got %v", err)
			}
		})

		t.Run("Error Body Message Is Surfaced", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message": "token expired"}`))
			})

			_, err := b.ListPlaylists(context.Background(), models.Browse("popular"), 0)
			var apiErr *shared.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "token expired" {
				t.Errorf("unexpected api error %+v", apiErr)
			}
		})

		t.Run("Non JSON Error Falls Back To Status", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			})

			_, err := b.ListPlaylists(context.Background(), models.Browse("popular"), 0)
			if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
				t.Errorf("expected HTTP 500 message, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			b := NewBackendService(BackendOpts{
				BaseURL:    "http://example.com",
				HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
			})
			_, err := b.ListPlaylists(context.Background(), models.Browse("popular"), 0)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected request failed error, got %v", err)
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"not": "an array"}`))
			})
			_, err := b.ListPlaylists(context.Background(), models.Browse("popular"), 0)
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/spotify/playlists/p1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("tracks") != "true" || r.URL.Query().Get("metadata") != "true" {
				t.Errorf("expected tracks and metadata flags, got %s", r.URL.RawQuery)
			}
			w.Write([]byte(`{
				"playlist": {"id": "p1", "name": "Mix", "owner": {"display_name": "me"}},
				"tracks": [
					{"id": "t1", "name": "good 4 u", "artists": [{"name": "Olivia Rodrigo"}],
					 "album": {"name": "SOUR", "images": [{"url": "https://img/sour"}]}, "duration_ms": 178147},
					{"id": "", "name": "local file"}
				]
			}`))
		})

		detail, err := b.PlaylistTracks(context.Background(), "p1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.Playlist.Name != "Mix" {
			t.Errorf("expected playlist name Mix, got %s", detail.Playlist.Name)
		}
		if len(detail.Tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(detail.Tracks))
		}
		tr := detail.Tracks[0]
		if tr.PrimaryArtist() != "Olivia Rodrigo" || tr.AlbumTitle != "SOUR" || tr.DurationMS != 178147 {
			t.Errorf("unexpected track mapping: %+v", tr)
		}
		if tr.AlbumImageURL != "https://img/sour" {
			t.Errorf("unexpected album image %s", tr.AlbumImageURL)
		}

		if _, err := b.PlaylistTracks(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Not Found Maps To Playlist Sentinel", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		_, err := b.PlaylistTracks(context.Background(), "missing")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("Subscribe", func(t *testing.T) {
		t.Run("Posts Request With Defaults", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/spotify/playlists/subscribe" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("failed to decode body: %v", err)
					return
				}
				if body["syncFrequency"] != "WEEKLY" || body["syncMode"] != "APPEND" {
					t.Errorf("expected default sync settings, got %v", body)
				}
				if body["syncQuantityPerSource"] != float64(5) || body["runImmediateSync"] != true {
					t.Errorf("expected default quantity and immediate sync, got %v", body)
				}
				if src, _ := body["sourcePlaylist"].(map[string]any); src["id"] != "p1" {
					t.Errorf("expected source p1, got %v", body["sourcePlaylist"])
				}
				w.Write([]byte(`{"success": true, "message": "Subscribed"}`))
			})

			req := models.NewSubscribeRequest(models.PlaylistRef{ID: "p1", Name: "Mix"})
			req.NewPlaylistName = "My Mix"
			resp, err := b.Subscribe(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resp.Success || resp.Message != "Subscribed" {
				t.Errorf("unexpected response %+v", resp)
			}
		})

		t.Run("Requires Source", func(t *testing.T) {
			b := NewBackendService(BackendOpts{})
			if _, err := b.Subscribe(context.Background(), models.SubscribeRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("Unsubscribe", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/users/managed-playlists/m1/subscriptions/p1" {
				t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`{"success": true, "message": "removed"}`))
		})

		resp, err := b.Unsubscribe(context.Background(), "m1", "p1")
		if err != nil || !resp.Success {
			t.Fatalf("unexpected result %+v, %v", resp, err)
		}
		if _, err := b.Unsubscribe(context.Background(), "m1", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("ManagedPlaylists", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/managed-playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`[{"id": "m1", "name": "Weekly", "subscriptions": [
				{"id": "s1", "sourcePlaylist": {"spotifyPlaylistId": "p1"}},
				{"id": "s2", "sourcePlaylist": {"spotifyPlaylistId": "p2"}}
			]}]`))
		})

		managed, err := b.ManagedPlaylists(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := models.SubscribedSourceIDs(managed)
		if _, ok := ids["p2"]; !ok || len(ids) != 2 {
			t.Errorf("unexpected subscribed ids %v", ids)
		}
	})

	t.Run("UserPlaylists", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("owned_only") != "true" || q.Get("limit") != "20" || q.Get("offset") != "0" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			w.Write([]byte(playlistsJSON))
		})

		items, err := b.UserPlaylists(context.Background(), 0, 0, true)
		if err != nil || len(items) != 2 {
			t.Fatalf("unexpected result %d, %v", len(items), err)
		}
	})
}
