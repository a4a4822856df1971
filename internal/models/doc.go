// Package models defines the value types shared by the listing, matching and preview layers.
//
// Listing types:
//   - [PlaylistSummary] : one playlist row in a browse or search feed
//   - [Discriminator] : the (mode, value) pair a listing is requested with
//   - [Taxonomy] : the static category configuration with its sub-options
//
// Preview types:
//   - [TrackRef] : track metadata used as matching input
//   - [Candidate] : a catalog hit with an optional preview locator
//   - [PreviewOutcome] : the cached result of a lookup, including negative results
//
// Subscription types ([ManagedPlaylist], [Subscription], [SubscribeRequest]) mirror the backend payloads.
package models
