// Package session implements the playback session core: the engine
// adapter, the session controller and the position ticker.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jdelattre/localwave/internal/engine"
	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/observe"
)

// Adapter presents a synchronous command surface over an engine whose
// construction is asynchronous and may fail or never complete. Without a
// connected handle every command is a silent no-op and every query
// returns its zero default.
type Adapter struct {
	mu sync.Mutex

	log     *slog.Logger
	connect engine.ConnectFunc

	listener engine.Listener
	onInit   func()

	eng       engine.Engine
	cancel    context.CancelFunc
	attempted bool

	// Initialized flips to true once a connection attempt succeeds and
	// stays false forever on a failed attempt.
	Initialized *observe.Value[bool]
}

func NewAdapter(connect engine.ConnectFunc, log *slog.Logger) *Adapter {
	return &Adapter{
		log:         log,
		connect:     connect,
		Initialized: observe.NewValue(false),
	}
}

// SetListener registers the engine event listener. Must be called before
// Initialize; events from a connection established earlier would be lost.
func (a *Adapter) SetListener(l engine.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

// OnInitialized registers a callback invoked once per successful
// connection, after the handle is captured.
func (a *Adapter) OnInitialized(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onInit = fn
}

// Initialize starts an asynchronous engine connection. Calling it while
// a prior attempt is pending or complete is a no-op. A failed attempt
// leaves the adapter permanently uninitialized; commands stay no-ops.
func (a *Adapter) Initialize() {
	a.mu.Lock()
	if a.attempted {
		a.mu.Unlock()
		return
	}
	a.attempted = true
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()

	go func() {
		eng, err := a.connect(ctx)
		if err != nil {
			a.log.Warn("engine connection failed", "err", err)
			return
		}

		a.mu.Lock()
		// Released while the connection was in flight: discard it.
		if ctx.Err() != nil {
			a.mu.Unlock()
			eng.Close()
			return
		}
		a.eng = eng
		eng.SetListener(a.listener)
		onInit := a.onInit
		// Set while still holding the lock: a Release racing the
		// completion must observe handle and flag as one unit, or it
		// would detach the handle and leave Initialized stuck true.
		a.Initialized.Set(true)
		a.mu.Unlock()

		if onInit != nil {
			onInit()
		}
	}()
}

// Release cancels any pending connection and detaches the handle. Safe
// to call repeatedly, including before a connection ever completed.
func (a *Adapter) Release() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	eng := a.eng
	a.eng = nil
	a.attempted = false
	a.Initialized.Set(false)
	a.mu.Unlock()

	if eng != nil {
		eng.Close()
	}
}

func (a *Adapter) engine() engine.Engine {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eng
}

// SetItems replaces the engine queue, prepared at startIndex and seeked
// to startPositionMs, without starting playback.
func (a *Adapter) SetItems(items []engine.Item, startIndex int, startPositionMs int64) {
	if e := a.engine(); e != nil {
		if err := e.SetItems(items, startIndex, startPositionMs); err != nil {
			a.log.Error("failed to set engine items", "err", err)
		}
	}
}

func (a *Adapter) Play() {
	if e := a.engine(); e != nil {
		e.Play()
	}
}

func (a *Adapter) Pause() {
	if e := a.engine(); e != nil {
		e.Pause()
	}
}

// TogglePlayPause reads the engine's actual playing state rather than a
// cached guess, so it cannot diverge from out-of-band transport input.
func (a *Adapter) TogglePlayPause() {
	e := a.engine()
	if e == nil {
		return
	}
	if e.IsPlaying() {
		e.Pause()
	} else {
		e.Play()
	}
}

func (a *Adapter) SeekTo(positionMs int64) {
	if e := a.engine(); e != nil {
		e.SeekTo(positionMs)
	}
}

func (a *Adapter) Next() {
	if e := a.engine(); e != nil {
		e.Next()
	}
}

func (a *Adapter) Previous() {
	if e := a.engine(); e != nil {
		e.Previous()
	}
}

func (a *Adapter) JumpTo(index int) {
	if e := a.engine(); e != nil {
		e.JumpTo(index)
	}
}

func (a *Adapter) Append(items ...engine.Item) {
	if e := a.engine(); e != nil {
		e.Append(items...)
	}
}

func (a *Adapter) Insert(index int, items ...engine.Item) {
	if e := a.engine(); e != nil {
		e.Insert(index, items...)
	}
}

// InsertAfterCurrent inserts immediately after the engine's current
// index, clamped to the queue bounds.
func (a *Adapter) InsertAfterCurrent(items ...engine.Item) {
	e := a.engine()
	if e == nil {
		return
	}
	at := e.CurrentIndex() + 1
	if at < 0 {
		at = 0
	}
	if n := len(e.Items()); at > n {
		at = n
	}
	e.Insert(at, items...)
}

func (a *Adapter) Remove(index int) {
	if e := a.engine(); e != nil {
		e.Remove(index)
	}
}

func (a *Adapter) Move(from, to int) {
	if e := a.engine(); e != nil {
		e.Move(from, to)
	}
}

func (a *Adapter) Clear() {
	if e := a.engine(); e != nil {
		e.Clear()
	}
}

func (a *Adapter) SetRepeatMode(mode media.RepeatMode) {
	if e := a.engine(); e != nil {
		e.SetRepeatMode(mode)
	}
}

func (a *Adapter) SetShuffle(enabled bool) {
	if e := a.engine(); e != nil {
		e.SetShuffle(enabled)
	}
}

func (a *Adapter) SetSpeed(speed float64) {
	if e := a.engine(); e != nil {
		e.SetSpeed(speed)
	}
}

func (a *Adapter) IsPlaying() bool {
	if e := a.engine(); e != nil {
		return e.IsPlaying()
	}
	return false
}

func (a *Adapter) PositionMs() int64 {
	if e := a.engine(); e != nil {
		return e.PositionMs()
	}
	return 0
}

func (a *Adapter) DurationMs() int64 {
	if e := a.engine(); e != nil {
		return e.DurationMs()
	}
	return 0
}

func (a *Adapter) CurrentIndex() int {
	if e := a.engine(); e != nil {
		return e.CurrentIndex()
	}
	return -1
}

// RestoreState hands a persisted session back to the engine: sets the
// full queue, resolves the start index from trackID (falling back to 0
// when absent), seeks, applies the modes, and leaves the engine paused.
// Restoring must never itself start audible playback.
func (a *Adapter) RestoreState(trackID *int64, positionMs int64, mode media.RepeatMode, shuffle bool, speed float64, items []engine.Item) {
	e := a.engine()
	if e == nil || len(items) == 0 {
		return
	}

	start := 0
	if trackID != nil {
		for i, it := range items {
			if it.ID == *trackID {
				start = i
				break
			}
		}
	}

	if err := e.SetItems(items, start, positionMs); err != nil {
		a.log.Error("failed to restore engine queue", "err", err)
		return
	}
	e.SetRepeatMode(mode)
	e.SetShuffle(shuffle)
	e.SetSpeed(speed)
}
