// package models defines the data model for playlist discovery and track previews
package models

import "strings"

// PlaylistSummary is a lightweight playlist descriptor shown in browse and search results.
//
// Identity is ID: two summaries with the same ID are the same playlist.
type PlaylistSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerLabel  string `json:"owner"`
	ImageURL    string `json:"image_url,omitempty"` // "" when the playlist has no artwork
	TrackCount  uint   `json:"track_count"`
	Description string `json:"description,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// TrackRef is a track within a playlist, used as input to preview resolution.
type TrackRef struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ArtistNames   []string `json:"artists"`
	AlbumTitle    string   `json:"album"`
	AlbumImageURL string   `json:"album_image_url,omitempty"`
	DurationMS    uint     `json:"duration_ms"`
}

// PrimaryArtist returns the first credited artist, or "" when there is none.
func (t TrackRef) PrimaryArtist() string {
	if len(t.ArtistNames) == 0 {
		return ""
	}
	return t.ArtistNames[0]
}

// Artists joins all credited artists for display.
func (t TrackRef) Artists() string {
	return strings.Join(t.ArtistNames, ", ")
}

// PreviewOutcome is the cached result of a preview lookup.
//
// Found == false records that a lookup ran and nothing usable was found.
type PreviewOutcome struct {
	TrackID string `json:"track_id"`
	Locator string `json:"locator,omitempty"`
	Found   bool   `json:"found"`
}

// NoPreview returns the negative outcome for a track.
func NoPreview(trackID string) PreviewOutcome {
	return PreviewOutcome{TrackID: trackID}
}

// PreviewAt returns a positive outcome pointing at locator.
func PreviewAt(trackID, locator string) PreviewOutcome {
	return PreviewOutcome{TrackID: trackID, Locator: locator, Found: true}
}

// Candidate is a catalog search hit considered during preview matching.
type Candidate struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	PreviewURL string `json:"preview_url,omitempty"` // "" when the catalog entry has no preview
	Album      string `json:"album,omitempty"`
}

// HasPreview reports whether the candidate carries a playable locator.
func (c Candidate) HasPreview() bool {
	return c.PreviewURL != ""
}

// Mode selects which feed a result session is showing.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeBrowse:
		return "browse"
	case ModeSearch:
		return "search"
	default:
		return ""
	}
}

// Discriminator selects a listing: the category in browse mode or the trimmed query in search mode.
type Discriminator struct {
	Mode  Mode
	Value string
}

// Browse returns a browse discriminator for category.
func Browse(category string) Discriminator {
	return Discriminator{Mode: ModeBrowse, Value: category}
}

// Search returns a search discriminator for query, trimmed.
func Search(query string) Discriminator {
	return Discriminator{Mode: ModeSearch, Value: strings.TrimSpace(query)}
}

func (d Discriminator) String() string {
	return d.Mode.String() + ":" + d.Value
}

// PlaylistDetail is a playlist with its full track listing.
type PlaylistDetail struct {
	Playlist PlaylistSummary `json:"playlist"`
	Tracks   []TrackRef      `json:"tracks"`
}
