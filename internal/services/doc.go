// Package services defines the collaborator interfaces the feed and preview layers depend on,
// and implements them for the subscription backend, Spotify and the iTunes catalog.
//
// # Listing Sources
//
// [PlaylistLister] returns one page of playlists for a [models.Discriminator]. Two sources implement it:
//   - [BackendService] : the subscription backend, authenticated with a bearer token via [oauth2.Transport]
//   - [SpotifySource] : the Spotify Web API through zmb3/spotify with client credentials
//
// Both drop malformed playlists (missing id, name or owner) before returning a page, so callers
// only ever see well-formed summaries.
//
// # Preview Catalog
//
// [ITunesCatalog] implements [Catalog] with the public iTunes Search API. Requests are rate limited
// with a token bucket. Entries without a preview URL are returned with an empty locator so the
// scorer can skip them.
//
// # Subscriptions
//
// [BackendService] also wraps the subscription endpoints (subscribe, unsubscribe, managed playlists).
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.APIError] : non-2xx backend response, matches [shared.ErrAPIRequest]
//   - [shared.ErrPlaylistNotFound] : 404 from the backend or Spotify
//   - [shared.ErrCatalogUnavailable] : catalog transport or decode failure
//   - [shared.ErrEmptyQuery] : blank search text
package services
