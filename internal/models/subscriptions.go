package models

// SyncFrequency controls how often a managed playlist pulls from its sources.
type SyncFrequency string

const (
	SyncDaily   SyncFrequency = "DAILY"
	SyncWeekly  SyncFrequency = "WEEKLY"
	SyncMonthly SyncFrequency = "MONTHLY"
)

// SyncMode controls how synced tracks are written to the managed playlist.
type SyncMode string

const (
	SyncAppend  SyncMode = "APPEND"
	SyncReplace SyncMode = "REPLACE"
)

// PlaylistRef is the playlist descriptor embedded in a subscribe request.
type PlaylistRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"imageUrl"`
	TrackCount uint   `json:"trackCount"`
}

// RefFor builds a [PlaylistRef] from a summary.
func RefFor(p PlaylistSummary) PlaylistRef {
	return PlaylistRef{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL, TrackCount: p.TrackCount}
}

// SubscribeRequest is the body sent to the backend to subscribe to a source playlist.
//
// Either ManagedPlaylist or NewPlaylistName selects the destination.
type SubscribeRequest struct {
	SourcePlaylist        PlaylistRef   `json:"sourcePlaylist"`
	ManagedPlaylist       *PlaylistRef  `json:"managedPlaylist,omitempty"`
	NewPlaylistName       string        `json:"newPlaylistName,omitempty"`
	SyncFrequency         SyncFrequency `json:"syncFrequency"`
	SyncQuantityPerSource int           `json:"syncQuantityPerSource"`
	RunImmediateSync      bool          `json:"runImmediateSync"`
	SyncMode              SyncMode      `json:"syncMode"`
	ExplicitContentFilter bool          `json:"explicitContentFilter"`
	TrackAgeLimit         int           `json:"trackAgeLimit"`
	CustomDays            []string      `json:"customDays,omitempty"`
}

// NewSubscribeRequest returns a request with the backend's default sync settings.
func NewSubscribeRequest(source PlaylistRef) SubscribeRequest {
	return SubscribeRequest{
		SourcePlaylist:        source,
		SyncFrequency:         SyncWeekly,
		SyncQuantityPerSource: 5,
		RunImmediateSync:      true,
		SyncMode:              SyncAppend,
	}
}

// WithDefaults fills unset sync settings the same way the backend would.
func (r SubscribeRequest) WithDefaults() SubscribeRequest {
	if r.SyncFrequency == "" {
		r.SyncFrequency = SyncWeekly
	}
	if r.SyncQuantityPerSource <= 0 {
		r.SyncQuantityPerSource = 5
	}
	if r.SyncMode == "" {
		r.SyncMode = SyncAppend
	}
	if r.TrackAgeLimit < 0 {
		r.TrackAgeLimit = 0
	}
	return r
}

// SubscribeResponse is the backend acknowledgement for subscribe and unsubscribe calls.
type SubscribeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SourcePlaylist identifies the upstream playlist behind a subscription.
type SourcePlaylist struct {
	ID                string `json:"id"`
	SpotifyPlaylistID string `json:"spotifyPlaylistId"`
	Name              string `json:"name"`
}

// Subscription links a managed playlist to one source playlist.
type Subscription struct {
	ID             string         `json:"id"`
	SourcePlaylist SourcePlaylist `json:"sourcePlaylist"`
}

// ManagedPlaylist is a user-owned playlist kept in sync from its subscriptions.
type ManagedPlaylist struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	SpotifyPlaylistID string         `json:"spotifyPlaylistId"`
	Subscriptions     []Subscription `json:"subscriptions"`
}

// SubscribedSourceIDs collects the source playlist ids across all managed playlists.
func SubscribedSourceIDs(managed []ManagedPlaylist) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, m := range managed {
		for _, s := range m.Subscriptions {
			if id := s.SourcePlaylist.SpotifyPlaylistID; id != "" {
				ids[id] = struct{}{}
			}
		}
	}
	return ids
}
