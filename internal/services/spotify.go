// Spotify Web API implementation of [Source]
//
// Lists category and search feeds straight from Spotify with an app-only (client credentials)
// token, for setups that run without the subscription backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// SpotifySource lists playlists and playlist items through the Spotify Web API.
type SpotifySource struct {
	client   *spotify.Client
	market   string
	pageSize int
	logger   *log.Logger
}

// SpotifyOpts configures a [SpotifySource].
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	Market       string
	PageSize     int          // default 20
	HTTPClient   *http.Client // pre-authorized client; skips the client credentials exchange
	BaseURL      string       // API root override, must end in "/"
	Logger       *log.Logger
}

// NewSpotifySource creates a Spotify source. Without an HTTPClient it authenticates with the
// client credentials flow; the returned client refreshes its token on demand.
func NewSpotifySource(ctx context.Context, opts SpotifyOpts) (*SpotifySource, error) {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.ClientID == "" || opts.ClientSecret == "" {
			return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
		}
		config := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		httpClient = config.Client(ctx)
	}

	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.BaseURL))
	}

	return &SpotifySource{
		client:   spotify.New(httpClient, clientOpts...),
		market:   opts.Market,
		pageSize: opts.PageSize,
		logger:   shared.WithLogger(opts.Logger, "component", "spotify"),
	}, nil
}

// Name returns the service name.
func (s *SpotifySource) Name() string {
	return shared.SourceSpotify
}

// ListPlaylists implements [PlaylistLister]. Browse mode treats the discriminator as a Spotify
// category id; search mode runs a playlist search.
func (s *SpotifySource) ListPlaylists(ctx context.Context, d models.Discriminator, offset int) ([]models.PlaylistSummary, error) {
	opts := []spotify.RequestOption{spotify.Limit(s.pageSize), spotify.Offset(offset)}

	switch d.Mode {
	case models.ModeSearch:
		if d.Value == "" {
			return nil, shared.ErrEmptyQuery
		}
		if s.market != "" {
			opts = append(opts, spotify.Market(s.market))
		}
		res, err := s.client.Search(ctx, d.Value, spotify.SearchTypePlaylist, opts...)
		if err != nil {
			return nil, fmt.Errorf("spotify search failed: %w", err)
		}
		if res.Playlists == nil {
			return []models.PlaylistSummary{}, nil
		}
		return spotifySummaries(res.Playlists.Playlists), nil
	default:
		if s.market != "" {
			opts = append(opts, spotify.Country(s.market))
		}
		page, err := s.client.GetCategoryPlaylists(ctx, d.Value, opts...)
		if err != nil {
			return nil, fmt.Errorf("spotify category %s failed: %w", d.Value, err)
		}
		return spotifySummaries(page.Playlists), nil
	}
}

// PlaylistTracks implements [TrackLister], following item pages to the end.
// Episodes and local files without an id are skipped.
func (s *SpotifySource) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	pl, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, err)
	}

	summary := spotifySummary(pl.SimplePlaylist)
	summary.TrackCount = uint(pl.Tracks.Total)
	detail := &models.PlaylistDetail{Playlist: summary}

	items, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(100))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist items: %w", err)
	}
	for {
		for _, item := range items.Items {
			if item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			detail.Tracks = append(detail.Tracks, spotifyTrackRef(item.Track.Track))
		}

		err := s.client.NextPage(ctx, items)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist items: %w", err)
		}
	}

	s.logger.Debug("fetched playlist", "id", playlistID, "tracks", len(detail.Tracks))
	return detail, nil
}

func spotifySummaries(in []spotify.SimplePlaylist) []models.PlaylistSummary {
	out := make([]models.PlaylistSummary, 0, len(in))
	for _, p := range in {
		out = append(out, spotifySummary(p))
	}
	return filterValid(out)
}

func spotifySummary(p spotify.SimplePlaylist) models.PlaylistSummary {
	s := models.PlaylistSummary{
		ID:          string(p.ID),
		Name:        p.Name,
		OwnerLabel:  p.Owner.DisplayName,
		TrackCount:  uint(p.Tracks.Total),
		Description: p.Description,
		ExternalURL: p.ExternalURLs["spotify"],
	}
	if s.OwnerLabel == "" {
		s.OwnerLabel = p.Owner.ID
	}
	if len(p.Images) > 0 {
		s.ImageURL = p.Images[0].URL
	}
	return s
}

func spotifyTrackRef(t *spotify.FullTrack) models.TrackRef {
	ref := models.TrackRef{
		ID:          string(t.ID),
		Title:       t.Name,
		AlbumTitle:  t.Album.Name,
		DurationMS:  uint(t.Duration),
		ArtistNames: make([]string, 0, len(t.Artists)),
	}
	for _, a := range t.Artists {
		ref.ArtistNames = append(ref.ArtistNames, a.Name)
	}
	if len(t.Album.Images) > 0 {
		ref.AlbumImageURL = t.Album.Images[0].URL
	}
	return ref
}
