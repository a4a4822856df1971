package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunesub/internal/models"
	"github.com/desertthunder/tunesub/internal/shared"
)

const (
	DefaultDebounceDelay = 800 * time.Millisecond
	DefaultGraceDelay    = 100 * time.Millisecond
)

// AfterFunc schedules fn after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, fn func()) (stop func() bool)

func timeAfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// SearchTarget is the part of [Session] the debouncer drives.
type SearchTarget interface {
	Mode() models.Mode
	EnterSearch(query string) error
	ExitSearch()
	LoadNextPage(ctx context.Context) error
}

// Debouncer turns raw search box input into session mode switches once typing settles.
//
// Only the most recent input can fire: each change cancels the pending timer, and a timer that
// fires late checks a generation counter before acting.
type Debouncer struct {
	target    SearchTarget
	ctx       context.Context
	delay     time.Duration
	grace     time.Duration
	afterFunc AfterFunc
	onError   func(error)
	logger    *log.Logger

	mu       sync.Mutex
	text     string
	gen      uint64
	stop     func() bool
	closed   bool
	inflight sync.WaitGroup
}

// DebounceOption configures a [Debouncer].
type DebounceOption func(*Debouncer)

// WithDelay sets how long input must be stable before a search is committed.
func WithDelay(d time.Duration) DebounceOption {
	return func(db *Debouncer) { db.delay = d }
}

// WithGrace sets the pause before an emptied search box returns to browsing.
func WithGrace(d time.Duration) DebounceOption {
	return func(db *Debouncer) { db.grace = d }
}

// WithScheduler replaces [time.AfterFunc].
func WithScheduler(fn AfterFunc) DebounceOption {
	return func(db *Debouncer) { db.afterFunc = fn }
}

// WithErrorHandler receives errors from loads the debouncer triggers.
func WithErrorHandler(fn func(error)) DebounceOption {
	return func(db *Debouncer) { db.onError = fn }
}

// WithDebounceLogger sets the debouncer's logger.
func WithDebounceLogger(l *log.Logger) DebounceOption {
	return func(db *Debouncer) { db.logger = l }
}

// NewDebouncer creates a debouncer for target. Loads it triggers run with ctx.
func NewDebouncer(ctx context.Context, target SearchTarget, opts ...DebounceOption) *Debouncer {
	db := &Debouncer{
		target:    target,
		ctx:       ctx,
		delay:     DefaultDebounceDelay,
		grace:     DefaultGraceDelay,
		afterFunc: timeAfterFunc,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = shared.NewLogger(nil)
	}
	db.logger = shared.WithLogger(db.logger, "component", "debounce")
	return db
}

// Input records the current search box text.
//
// Non-empty text is committed as a search after the debounce delay if it is still current.
// Empty text while searching returns to browsing after the grace delay. Empty text while
// browsing does nothing.
func (db *Debouncer) Input(text string) {
	text = strings.TrimSpace(text)

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return
	}
	db.text = text
	db.cancelLocked()
	gen := db.gen

	if text == "" {
		if db.target.Mode() != models.ModeSearch {
			return
		}
		db.stop = db.afterFunc(db.grace, func() { db.fireExit(gen) })
		return
	}
	db.stop = db.afterFunc(db.delay, func() { db.fireCommit(gen, text) })
}

// Clear empties the search box and returns to browsing immediately.
func (db *Debouncer) Clear() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	db.text = ""
	db.cancelLocked()
	db.mu.Unlock()

	return db.exitSearch()
}

// Flush acts on pending input now instead of waiting for its timer, then waits for any search
// or exit already running. It does nothing when no input is pending.
func (db *Debouncer) Flush() error {
	db.mu.Lock()
	if db.closed {
		db.mu.Unlock()
		return nil
	}
	pending, text := db.stop != nil, db.text
	if pending {
		db.cancelLocked()
	}
	db.mu.Unlock()

	var err error
	switch {
	case !pending:
	case text == "":
		err = db.exitSearch()
	default:
		if err = db.target.EnterSearch(text); err == nil {
			err = db.target.LoadNextPage(db.ctx)
		}
	}
	db.inflight.Wait()
	return err
}

// Close cancels any pending timer. Later input is ignored.
func (db *Debouncer) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	db.cancelLocked()
}

// cancelLocked invalidates the pending timer. Callers must hold db.mu.
func (db *Debouncer) cancelLocked() {
	db.gen++
	if db.stop != nil {
		db.stop()
		db.stop = nil
	}
}

func (db *Debouncer) current(gen uint64, text string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed || gen != db.gen || db.text != text {
		return false
	}
	db.stop = nil
	db.inflight.Add(1)
	return true
}

func (db *Debouncer) fireCommit(gen uint64, text string) {
	if !db.current(gen, text) {
		return
	}
	defer db.inflight.Done()

	db.logger.Debug("committing search", "query", text)
	if err := db.target.EnterSearch(text); err != nil {
		db.report(err)
		return
	}

	// Input that arrived while the session was still browsing could not schedule an exit.
	switch changed, cleared := db.changedSince(gen); {
	case cleared:
		db.report(db.exitSearch())
	case changed:
		db.logger.Debug("search superseded", "query", text)
	default:
		db.report(db.target.LoadNextPage(db.ctx))
	}
}

// changedSince reports whether input moved on after gen, and whether it was emptied with no
// exit pending.
func (db *Debouncer) changedSince(gen uint64) (changed, cleared bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if gen == db.gen {
		return false, false
	}
	return true, db.text == "" && db.stop == nil && !db.closed
}

func (db *Debouncer) fireExit(gen uint64) {
	if !db.current(gen, "") {
		return
	}
	defer db.inflight.Done()
	db.report(db.exitSearch())
}

func (db *Debouncer) exitSearch() error {
	if db.target.Mode() != models.ModeSearch {
		return nil
	}
	db.logger.Debug("leaving search")
	db.target.ExitSearch()
	return db.target.LoadNextPage(db.ctx)
}

func (db *Debouncer) report(err error) {
	if err == nil {
		return
	}
	db.logger.Warn("search load failed", "err", err)
	if db.onError != nil {
		db.onError(err)
	}
}
