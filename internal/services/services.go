package services

import (
	"context"

	"github.com/desertthunder/tunesub/internal/models"
)

// PlaylistLister returns one page of playlist summaries for a browse category or search query.
//
// An empty page is a valid result and signals the end of the feed.
type PlaylistLister interface {
	ListPlaylists(ctx context.Context, d models.Discriminator, offset int) ([]models.PlaylistSummary, error)
}

// TrackLister returns a playlist with its tracks.
type TrackLister interface {
	PlaylistTracks(ctx context.Context, playlistID string) (*models.PlaylistDetail, error)
}

// Source is a full listing backend: feeds plus playlist contents.
type Source interface {
	PlaylistLister
	TrackLister
	Name() string
}

// Catalog searches a public music catalog for preview candidates.
type Catalog interface {
	SearchCatalog(ctx context.Context, query string, limit int) ([]models.Candidate, error)
}

// Subscriptions manages playlist subscriptions on the backend.
type Subscriptions interface {
	ManagedPlaylists(ctx context.Context) ([]models.ManagedPlaylist, error)
	UserPlaylists(ctx context.Context, offset, limit int, ownedOnly bool) ([]models.PlaylistSummary, error)
	Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.SubscribeResponse, error)
	Unsubscribe(ctx context.Context, managedID, sourceID string) (*models.SubscribeResponse, error)
}

// validSummary drops playlists that cannot be shown or subscribed to.
func validSummary(p models.PlaylistSummary) bool {
	return p.ID != "" && p.Name != "" && p.OwnerLabel != ""
}

func filterValid(in []models.PlaylistSummary) []models.PlaylistSummary {
	out := make([]models.PlaylistSummary, 0, len(in))
	for _, p := range in {
		if validSummary(p) {
			out = append(out, p)
		}
	}
	return out
}
