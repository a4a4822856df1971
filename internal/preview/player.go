package preview

import "context"

// Player starts and stops audio for a preview locator.
//
// Start returns an opaque handle. onComplete is called with that handle when playback ends on its
// own; it is not called after Stop.
type Player interface {
	Start(ctx context.Context, locator string, onComplete func(handle string)) (string, error)
	Stop(handle string) error
}

// session is the single active playback.
type session struct {
	trackID string
	locator string
	handle  string
}
