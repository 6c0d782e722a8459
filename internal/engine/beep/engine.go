// Package beep implements the playback engine on top of the beep audio
// library and its speaker backend.
package beep

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/jdelattre/localwave/internal/engine"
	"github.com/jdelattre/localwave/internal/media"
)

const resampleQuality = 4

// The speaker is process-global and can only be initialized once; the
// first decoded track picks the output rate and everything else is
// resampled to it.
var (
	speakerInitialized bool
	speakerRate        gobeep.SampleRate
)

// Engine plays a queue of local files through the speaker. All methods
// are safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	log *slog.Logger

	listener engine.Listener

	items   []engine.Item
	order   []int // playback order, indices into items
	current int   // canonical index of the loaded track, -1 when empty

	repeat  media.RepeatMode
	shuffle bool
	speed   float64
	playing bool

	file      *os.File
	streamer  gobeep.StreamSeekCloser
	format    gobeep.Format
	resampler *gobeep.Resampler
	ctrl      *gobeep.Ctrl

	// gen invalidates finish callbacks from streams that were replaced.
	gen    int
	closed bool
}

// Connect returns a ConnectFunc producing a speaker-backed engine.
func Connect(log *slog.Logger) engine.ConnectFunc {
	return func(ctx context.Context) (engine.Engine, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Engine{log: log, current: -1, speed: 1.0}, nil
	}
}

func (e *Engine) SetListener(l engine.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

// SetItems replaces the queue and prepares the track at startIndex,
// paused and seeked to startPositionMs. Preparing a track announces its
// duration, so a fresh or restored session shows the real track length
// before the first transition.
func (e *Engine) SetItems(items []engine.Item, startIndex int, startPositionMs int64) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}

	e.stopStreamLocked()
	e.items = append([]engine.Item(nil), items...)
	e.playing = false

	if len(e.items) == 0 {
		e.current = -1
		e.order = nil
		e.mu.Unlock()
		return nil
	}

	if startIndex < 0 || startIndex >= len(e.items) {
		startIndex = 0
	}
	e.current = startIndex
	e.rebuildOrderLocked()

	if err := e.loadLocked(startIndex); err != nil {
		e.mu.Unlock()
		return err
	}
	e.seekLocked(startPositionMs)
	dur := e.format.SampleRate.D(e.streamer.Len()).Milliseconds()
	l := e.listener
	e.mu.Unlock()

	if l != nil {
		l.DurationChanged(dur)
	}
	return nil
}

func (e *Engine) Play() {
	e.mu.Lock()
	if e.closed || len(e.items) == 0 {
		e.mu.Unlock()
		return
	}
	dur := int64(-1)
	if e.ctrl == nil {
		if e.current < 0 {
			e.current = e.order[0]
		}
		if err := e.loadLocked(e.current); err != nil {
			e.log.Error("failed to load track", "err", err)
			e.mu.Unlock()
			return
		}
		dur = e.format.SampleRate.D(e.streamer.Len()).Milliseconds()
	}
	changed := !e.playing
	e.playing = true
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	l := e.listener
	e.mu.Unlock()

	if l != nil {
		if dur >= 0 {
			l.DurationChanged(dur)
		}
		if changed {
			l.PlayingChanged(true)
		}
	}
}

func (e *Engine) Pause() {
	e.mu.Lock()
	if e.closed || e.ctrl == nil || !e.playing {
		e.mu.Unlock()
		return
	}
	e.playing = false
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	l := e.listener
	e.mu.Unlock()

	if l != nil {
		l.PlayingChanged(false)
	}
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) SeekTo(positionMs int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekLocked(positionMs)
}

func (e *Engine) Next() {
	e.advance(1)
}

func (e *Engine) Previous() {
	e.mu.Lock()
	if e.closed || e.current < 0 {
		e.mu.Unlock()
		return
	}
	pos := e.orderPosLocked(e.current)
	if pos <= 0 {
		// At the head of the order: restart the current track.
		e.seekLocked(0)
		e.mu.Unlock()
		return
	}
	target := e.order[pos-1]
	l, idx := e.switchToLocked(target)
	e.mu.Unlock()
	e.notifyTrackChange(l, idx)
}

func (e *Engine) JumpTo(index int) {
	e.mu.Lock()
	if e.closed || index < 0 || index >= len(e.items) {
		e.mu.Unlock()
		return
	}
	l, idx := e.switchToLocked(index)
	e.mu.Unlock()
	e.notifyTrackChange(l, idx)
}

func (e *Engine) Append(items ...engine.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.items = append(e.items, items...)
	e.rebuildOrderLocked()
}

func (e *Engine) Insert(index int, items ...engine.Item) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(e.items) {
		index = len(e.items)
	}
	e.items = append(e.items[:index], append(append([]engine.Item(nil), items...), e.items[index:]...)...)
	if index <= e.current {
		e.current += len(items)
	}
	e.rebuildOrderLocked()
}

func (e *Engine) Remove(index int) {
	e.mu.Lock()
	if e.closed || index < 0 || index >= len(e.items) {
		e.mu.Unlock()
		return
	}

	removingCurrent := index == e.current
	e.items = append(e.items[:index], e.items[index+1:]...)
	if index < e.current {
		e.current--
	}

	var l engine.Listener
	idx := -1
	if removingCurrent {
		e.stopStreamLocked()
		if len(e.items) == 0 {
			e.current = -1
			e.playing = false
		} else {
			if index >= len(e.items) {
				index = len(e.items) - 1
			}
			e.current = index
			if err := e.loadLocked(e.current); err != nil {
				e.log.Error("failed to load track", "err", err)
			}
			l = e.listener
			idx = e.current
		}
	}
	e.rebuildOrderLocked()
	e.mu.Unlock()

	e.notifyTrackChange(l, idx)
}

func (e *Engine) Move(from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || from < 0 || from >= len(e.items) || to < 0 || to >= len(e.items) {
		return
	}
	it := e.items[from]
	e.items = append(e.items[:from], e.items[from+1:]...)
	e.items = append(e.items[:to], append([]engine.Item{it}, e.items[to:]...)...)
	switch {
	case e.current == from:
		e.current = to
	case from < e.current && to >= e.current:
		e.current--
	case from > e.current && to <= e.current:
		e.current++
	}
	e.rebuildOrderLocked()
}

func (e *Engine) Clear() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.stopStreamLocked()
	e.items = nil
	e.order = nil
	e.current = -1
	wasPlaying := e.playing
	e.playing = false
	l := e.listener
	e.mu.Unlock()

	if wasPlaying && l != nil {
		l.PlayingChanged(false)
	}
}

func (e *Engine) SetRepeatMode(mode media.RepeatMode) {
	e.mu.Lock()
	e.repeat = mode
	l := e.listener
	e.mu.Unlock()
	if l != nil {
		l.RepeatModeChanged(mode)
	}
}

func (e *Engine) SetShuffle(enabled bool) {
	e.mu.Lock()
	e.shuffle = enabled
	e.rebuildOrderLocked()
	l := e.listener
	e.mu.Unlock()
	if l != nil {
		l.ShuffleChanged(enabled)
	}
}

func (e *Engine) SetSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	e.mu.Lock()
	e.speed = speed
	if e.resampler != nil {
		speaker.Lock()
		e.resampler.SetRatio(e.ratioLocked())
		speaker.Unlock()
	}
	l := e.listener
	e.mu.Unlock()
	if l != nil {
		l.SpeedChanged(speed)
	}
}

func (e *Engine) PositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position())
	speaker.Unlock()
	return pos.Milliseconds()
}

func (e *Engine) DurationMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len()).Milliseconds()
}

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) Items() []engine.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Item(nil), e.items...)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stopStreamLocked()
	return nil
}

// advance moves forward in the playback order, honoring repeat-all
// wrapping at the end.
func (e *Engine) advance(steps int) {
	e.mu.Lock()
	if e.closed || e.current < 0 {
		e.mu.Unlock()
		return
	}
	pos := e.orderPosLocked(e.current) + steps
	if pos >= len(e.order) {
		if e.repeat != media.RepeatAll {
			e.mu.Unlock()
			return
		}
		pos = 0
	}
	target := e.order[pos]
	l, idx := e.switchToLocked(target)
	e.mu.Unlock()
	e.notifyTrackChange(l, idx)
}

// switchToLocked loads another canonical index keeping the play state,
// returning the listener and index to notify with.
func (e *Engine) switchToLocked(index int) (engine.Listener, int) {
	e.stopStreamLocked()
	e.current = index
	if err := e.loadLocked(index); err != nil {
		e.log.Error("failed to load track", "err", err)
		return nil, -1
	}
	if e.playing {
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
	}
	return e.listener, index
}

func (e *Engine) notifyTrackChange(l engine.Listener, index int) {
	if l == nil || index < 0 {
		return
	}
	l.TrackChanged(index)
	e.mu.Lock()
	dur := int64(0)
	if e.streamer != nil {
		dur = e.format.SampleRate.D(e.streamer.Len()).Milliseconds()
	}
	e.mu.Unlock()
	l.DurationChanged(dur)
}

// loadLocked decodes the item at index and hands it to the speaker,
// paused. Callers decide whether to unpause.
func (e *Engine) loadLocked(index int) error {
	item := e.items[index]
	f, streamer, format, err := decode(uriToPath(item.URI))
	if err != nil {
		return err
	}

	if !speakerInitialized {
		speakerRate = format.SampleRate
		if err := speaker.Init(speakerRate, speakerRate.N(time.Second/10)); err != nil {
			streamer.Close()
			f.Close()
			return err
		}
		speakerInitialized = true
	}

	e.file = f
	e.streamer = streamer
	e.format = format
	e.resampler = gobeep.ResampleRatio(resampleQuality, e.ratioLocked(), streamer)
	e.ctrl = &gobeep.Ctrl{Streamer: e.resampler, Paused: true}

	e.gen++
	gen := e.gen
	speaker.Play(gobeep.Seq(e.ctrl, gobeep.Callback(func() {
		go e.trackFinished(gen)
	})))
	return nil
}

// ratioLocked is the resample ratio from source rate to speaker rate,
// scaled by the playback speed.
func (e *Engine) ratioLocked() float64 {
	return float64(e.format.SampleRate) / float64(speakerRate) * e.speed
}

func (e *Engine) stopStreamLocked() {
	e.gen++
	if e.ctrl == nil {
		return
	}
	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.resampler = nil
	e.ctrl = nil
}

func (e *Engine) seekLocked(positionMs int64) {
	if e.streamer == nil {
		return
	}
	n := e.format.SampleRate.N(time.Duration(positionMs) * time.Millisecond)
	if n < 0 {
		n = 0
	}
	if maxN := e.streamer.Len(); n > maxN {
		n = maxN
	}
	speaker.Lock()
	_ = e.streamer.Seek(n)
	speaker.Unlock()
}

// trackFinished runs when a stream drains. Stale generations are streams
// that were already replaced by an explicit command.
func (e *Engine) trackFinished(gen int) {
	e.mu.Lock()
	if e.closed || gen != e.gen || e.current < 0 {
		e.mu.Unlock()
		return
	}

	if e.repeat == media.RepeatOne {
		e.stopStreamLocked()
		if err := e.loadLocked(e.current); err != nil {
			e.log.Error("failed to restart track", "err", err)
			e.mu.Unlock()
			return
		}
		speaker.Lock()
		e.ctrl.Paused = false
		speaker.Unlock()
		e.mu.Unlock()
		return
	}

	pos := e.orderPosLocked(e.current) + 1
	if pos >= len(e.order) {
		if e.repeat == media.RepeatAll && len(e.order) > 0 {
			pos = 0
		} else {
			// Queue exhausted.
			e.stopStreamLocked()
			e.playing = false
			l := e.listener
			e.mu.Unlock()
			if l != nil {
				l.PlayingChanged(false)
				l.PlaybackEnded()
			}
			return
		}
	}

	target := e.order[pos]
	l, idx := e.switchToLocked(target)
	e.mu.Unlock()
	e.notifyTrackChange(l, idx)
}

func (e *Engine) orderPosLocked(index int) int {
	for i, v := range e.order {
		if v == index {
			return i
		}
	}
	return 0
}

// rebuildOrderLocked recomputes the playback order: identity normally, a
// permutation with the current track first when shuffle is on.
func (e *Engine) rebuildOrderLocked() {
	n := len(e.items)
	e.order = make([]int, n)
	for i := range e.order {
		e.order[i] = i
	}
	if !e.shuffle || n < 2 {
		return
	}
	rand.Shuffle(n, func(i, j int) {
		e.order[i], e.order[j] = e.order[j], e.order[i]
	})
	if e.current >= 0 {
		pos := e.orderPosLocked(e.current)
		e.order[0], e.order[pos] = e.order[pos], e.order[0]
	}
}

// Verify Engine implements the contract at compile time.
var _ engine.Engine = (*Engine)(nil)
