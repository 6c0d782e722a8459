// Package engine defines the playback engine contract. The engine owns
// the live queue and transport state; durable persistence lives elsewhere
// and is reconciled by the session controller.
package engine

import (
	"context"

	"github.com/jdelattre/localwave/internal/media"
)

// Item is one queue entry handed to the engine. The engine only needs a
// playable URI; full track metadata stays with the caller.
type Item struct {
	ID  int64
	URI string
}

// Listener receives engine callbacks. Implementations must not call back
// into the engine from within a callback.
//
// DurationChanged fires whenever a track's transport becomes ready:
// after SetItems prepares one, on a lazy load triggered by Play, and on
// every track transition.
type Listener interface {
	PlayingChanged(playing bool)
	TrackChanged(index int)
	DurationChanged(durationMs int64)
	PlaybackEnded()
	RepeatModeChanged(mode media.RepeatMode)
	ShuffleChanged(enabled bool)
	SpeedChanged(speed float64)
}

// Engine is the playback transport. Commands are accepted in any state;
// an engine with no loaded items treats transport commands as no-ops.
type Engine interface {
	SetListener(l Listener)

	// SetItems replaces the queue and prepares playback at startIndex,
	// seeked to startPositionMs, without starting playback.
	SetItems(items []Item, startIndex int, startPositionMs int64) error

	Play()
	Pause()
	IsPlaying() bool

	SeekTo(positionMs int64)
	Next()
	Previous()
	JumpTo(index int)

	Append(items ...Item)
	Insert(index int, items ...Item)
	Remove(index int)
	Move(from, to int)
	Clear()

	SetRepeatMode(mode media.RepeatMode)
	SetShuffle(enabled bool)
	SetSpeed(speed float64)

	PositionMs() int64
	DurationMs() int64
	CurrentIndex() int
	Items() []Item

	Close() error
}

// ConnectFunc establishes a connection to an engine. Connecting may be
// slow (audio device init), so it takes a context for cancellation.
type ConnectFunc func(ctx context.Context) (Engine, error)
