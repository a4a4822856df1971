package preview

import (
	"sync"

	"github.com/desertthunder/tunesub/internal/models"
)

// Cache holds preview outcomes for one browsing session, keyed by track id.
//
// Both found and not-found outcomes are stored; a missing key means the track was never looked up.
type Cache struct {
	mu       sync.RWMutex
	outcomes map[string]models.PreviewOutcome
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{outcomes: make(map[string]models.PreviewOutcome)}
}

// Get returns the outcome for trackID and whether a lookup has been recorded.
func (c *Cache) Get(trackID string) (models.PreviewOutcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.outcomes[trackID]
	return o, ok
}

// Put records an outcome. Existing entries are kept: outcomes never change once written.
func (c *Cache) Put(o models.PreviewOutcome) models.PreviewOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.outcomes[o.TrackID]; ok {
		return existing
	}
	c.outcomes[o.TrackID] = o
	return o
}

// Len returns the number of recorded outcomes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.outcomes)
}

// Clear drops every outcome.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = make(map[string]models.PreviewOutcome)
}
