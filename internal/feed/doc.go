// Package feed manages the playlist results a user sees while browsing categories or searching.
//
// A [Session] holds one active feed, either browse (keyed by category) or search (keyed by query).
// Pages are requested at offsets 0, 20, 40, ... and merged with duplicate ids dropped. A feed is
// exhausted when a page comes back empty or adds nothing new. Switching mode, changing category
// or refreshing replaces the feed, and any response still in flight for the old feed is discarded.
//
// A [Debouncer] sits between the search box and the session: text is committed as a search only
// after it has been stable for the debounce delay, and clearing the box returns to browsing.
package feed
