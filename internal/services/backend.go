// Subscription backend client.
//
// The backend proxies Spotify for listings and owns managed playlists and their subscriptions.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
	"golang.org/x/oauth2"
)

// BackendPlaylist is the playlist payload returned by the backend's Spotify proxy endpoints.
type BackendPlaylist struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Owner       *backendOwner  `json:"owner"`
	Images      []backendImage `json:"images"`
	Tracks      *struct {
		Total uint `json:"total"`
	} `json:"tracks"`
	ExternalURLs *struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type backendOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type backendImage struct {
	URL string `json:"url"`
}

// BackendTrack is the track payload returned with playlist contents.
type BackendTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string         `json:"name"`
		Images []backendImage `json:"images"`
	} `json:"album"`
	DurationMS uint `json:"duration_ms"`
}

type playlistTracksResponse struct {
	Tracks   []BackendTrack  `json:"tracks"`
	Playlist BackendPlaylist `json:"playlist"`
}

type errorBody struct {
	Message string `json:"message"`
}

// BackendService talks to the subscription backend using a bearer token.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// BackendOpts configures a [BackendService].
type BackendOpts struct {
	BaseURL     string
	TokenSource oauth2.TokenSource // nil sends unauthenticated requests
	HTTPClient  *http.Client       // base client; its transport is wrapped with the token source
	Logger      *log.Logger
}

// NewBackendService creates a backend client. Requests carry "Authorization: Bearer <token>"
// from the token source.
func NewBackendService(opts BackendOpts) *BackendService {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:3000"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	client := opts.HTTPClient
	if opts.TokenSource != nil {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		client = &http.Client{
			Transport: &oauth2.Transport{Source: opts.TokenSource, Base: base},
			Timeout:   opts.HTTPClient.Timeout,
		}
	}

	return &BackendService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		logger:     shared.WithLogger(opts.Logger, "component", "backend"),
	}
}

// StaticToken wraps a fixed bearer token as a token source. An empty token yields nil.
func StaticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// Name returns the service name.
func (b *BackendService) Name() string {
	return shared.SourceBackend
}

func (b *BackendService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		b.logger.Debug("backend error", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
		return shared.NewAPIError(resp.StatusCode, eb.Message)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ListPlaylists implements [PlaylistLister] against the curated and search endpoints.
func (b *BackendService) ListPlaylists(ctx context.Context, d models.Discriminator, offset int) ([]models.PlaylistSummary, error) {
	switch d.Mode {
	case models.ModeSearch:
		return b.SearchPlaylists(ctx, d.Value, offset)
	default:
		return b.CuratedPlaylists(ctx, d.Value, offset)
	}
}

// CuratedPlaylists fetches a page of curated playlists for a category.
func (b *BackendService) CuratedPlaylists(ctx context.Context, category string, offset int) ([]models.PlaylistSummary, error) {
	if category == "" {
		category = "popular"
	}
	params := url.Values{}
	params.Set("category", category)
	params.Set("offset", strconv.Itoa(offset))

	var payload []BackendPlaylist
	if err := b.doRequest(ctx, http.MethodGet, "/spotify/curated-playlists?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return toSummaries(payload), nil
}

// SearchPlaylists fetches a page of playlists matching text.
func (b *BackendService) SearchPlaylists(ctx context.Context, text string, offset int) ([]models.PlaylistSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, shared.ErrEmptyQuery
	}
	params := url.Values{}
	params.Set("searchText", text)
	params.Set("offset", strconv.Itoa(offset))

	var payload []BackendPlaylist
	if err := b.doRequest(ctx, http.MethodGet, "/spotify/search?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return toSummaries(payload), nil
}

// PlaylistTracks implements [TrackLister].
func (b *BackendService) PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDetail, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	params := url.Values{}
	params.Set("tracks", "true")
	params.Set("metadata", "true")

	var payload playlistTracksResponse
	endpoint := "/spotify/playlists/" + url.PathEscape(playlistID) + "?" + params.Encode()
	if err := b.doRequest(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	detail := &models.PlaylistDetail{
		Playlist: payload.Playlist.toSummary(),
		Tracks:   make([]models.TrackRef, 0, len(payload.Tracks)),
	}
	for _, t := range payload.Tracks {
		if t.ID == "" {
			continue
		}
		detail.Tracks = append(detail.Tracks, t.toTrackRef())
	}
	return detail, nil
}

// UserPlaylists lists the signed-in user's playlists, used to pick a subscription destination.
func (b *BackendService) UserPlaylists(ctx context.Context, offset, limit int, ownedOnly bool) ([]models.PlaylistSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if ownedOnly {
		params.Set("owned_only", "true")
	}

	var payload []BackendPlaylist
	if err := b.doRequest(ctx, http.MethodGet, "/spotify/user/playlists?"+params.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return toSummaries(payload), nil
}

// Subscribe subscribes a managed playlist to a source playlist.
func (b *BackendService) Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.SubscribeResponse, error) {
	if req.SourcePlaylist.ID == "" {
		return nil, fmt.Errorf("%w: source playlist id", shared.ErrMissingArgument)
	}

	var resp models.SubscribeResponse
	if err := b.doRequest(ctx, http.MethodPost, "/spotify/playlists/subscribe", req.WithDefaults(), &resp); err != nil {
		return nil, err
	}
	b.logger.Info("subscribed", "source", req.SourcePlaylist.ID, "message", resp.Message)
	return &resp, nil
}

// Unsubscribe removes a source playlist from a managed playlist.
func (b *BackendService) Unsubscribe(ctx context.Context, managedID, sourceID string) (*models.SubscribeResponse, error) {
	if managedID == "" || sourceID == "" {
		return nil, fmt.Errorf("%w: managed and source playlist ids", shared.ErrMissingArgument)
	}

	endpoint := fmt.Sprintf("/users/managed-playlists/%s/subscriptions/%s", url.PathEscape(managedID), url.PathEscape(sourceID))
	var resp models.SubscribeResponse
	if err := b.doRequest(ctx, http.MethodDelete, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	b.logger.Info("unsubscribed", "managed", managedID, "source", sourceID)
	return &resp, nil
}

// ManagedPlaylists lists the user's managed playlists with their subscriptions.
func (b *BackendService) ManagedPlaylists(ctx context.Context) ([]models.ManagedPlaylist, error) {
	var payload []models.ManagedPlaylist
	if err := b.doRequest(ctx, http.MethodGet, "/users/managed-playlists", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func toSummaries(in []BackendPlaylist) []models.PlaylistSummary {
	out := make([]models.PlaylistSummary, 0, len(in))
	for _, p := range in {
		out = append(out, p.toSummary())
	}
	return filterValid(out)
}

func (p BackendPlaylist) toSummary() models.PlaylistSummary {
	s := models.PlaylistSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
	if p.Owner != nil {
		s.OwnerLabel = p.Owner.DisplayName
		if s.OwnerLabel == "" {
			s.OwnerLabel = p.Owner.ID
		}
	}
	if len(p.Images) > 0 {
		s.ImageURL = p.Images[0].URL
	}
	if p.Tracks != nil {
		s.TrackCount = p.Tracks.Total
	}
	if p.ExternalURLs != nil {
		s.ExternalURL = p.ExternalURLs.Spotify
	}
	return s
}

func (t BackendTrack) toTrackRef() models.TrackRef {
	ref := models.TrackRef{
		ID:          t.ID,
		Title:       t.Name,
		AlbumTitle:  t.Album.Name,
		DurationMS:  t.DurationMS,
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
