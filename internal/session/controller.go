package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jdelattre/localwave/internal/engine"
	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/observe"
)

// Store is the durable persistence surface the controller mirrors into.
// Only the controller writes these records; other components may read.
type Store interface {
	EnsurePlaybackState() error
	PlaybackState() (media.PlaybackState, error)
	UpdateCurrentTrack(trackID *int64) error
	UpdatePosition(positionMs int64) error
	UpdateRepeatMode(mode media.RepeatMode) error
	UpdateShuffle(enabled bool) error
	UpdateSpeed(speed float64) error
	ReplaceQueue(trackIDs []int64) error
	QueueTracks() ([]media.Track, error)
}

// Controller owns the live session state. It mediates between engine
// events, UI commands and the durable stores: commands update the live
// observable state synchronously and mirror into the store in the
// background. Commands never return errors; failures are logged and the
// live state stays authoritative.
type Controller struct {
	log     *slog.Logger
	adapter *Adapter
	store   Store

	// Live observable state. The durable records are only read once, at
	// restore; afterwards these fields are the source of truth.
	CurrentTrack *observe.Value[*media.Track]
	Playing      *observe.Value[bool]
	Position     *observe.Value[int64] // display position, ms
	Duration     *observe.Value[int64]
	Repeat       *observe.Value[media.RepeatMode]
	Shuffle      *observe.Value[bool]
	Speed        *observe.Value[float64]
	Queue        *observe.Value[[]media.Track]
	QueueIndex   *observe.Value[int]
	Initialized  *observe.Value[bool]

	// mu serializes every mutation of the live-state aggregate: queue
	// commands, engine events and the seek fields below. Commands arrive
	// concurrently from the UI, the MPRIS goroutine and engine callbacks;
	// without the lock two interleaved read-modify-writes of Queue would
	// lose one.
	mu         sync.Mutex
	seeking    bool
	seekTarget int64
	restored   bool

	tickInterval time.Duration
	ticker       *Ticker
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// NewController wires a controller to its adapter and store. Call Start
// to connect the engine and begin the position ticker.
func NewController(adapter *Adapter, store Store, tickInterval time.Duration, log *slog.Logger) *Controller {
	def := media.DefaultPlaybackState()
	return &Controller{
		log:          log,
		adapter:      adapter,
		store:        store,
		tickInterval: tickInterval,

		CurrentTrack: observe.NewValue[*media.Track](nil),
		Playing:      observe.NewValue(false),
		Position:     observe.NewValue[int64](0),
		Duration:     observe.NewValue[int64](0),
		Repeat:       observe.NewValue(def.RepeatMode),
		Shuffle:      observe.NewValue(def.Shuffle),
		Speed:        observe.NewValue(def.Speed),
		Queue:        observe.NewValue[[]media.Track](nil),
		QueueIndex:   observe.NewValue(-1),
		Initialized:  observe.NewValue(false),
	}
}

// SetDefaultSpeed sets the playback speed used until a restored session
// overrides it with the recorded value. Call before Start; unlike
// SetPlaybackSpeed it is not persisted.
func (c *Controller) SetDefaultSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	c.Speed.Set(speed)
}

// Start registers for engine events, begins the connection attempt and
// starts the position ticker. The ticker runs until Close regardless of
// the connection outcome.
func (c *Controller) Start() {
	c.adapter.SetListener(c)
	c.adapter.OnInitialized(c.handleInitialized)
	c.adapter.Initialize()
	c.ticker = StartTicker(c.tickInterval, c.tick)
}

// Close persists the current track and position best-effort, stops the
// ticker and releases the engine. Safe to call multiple times.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		var id *int64
		if t := c.CurrentTrack.Get(); t != nil {
			v := t.ID
			id = &v
		}
		if err := c.store.UpdateCurrentTrack(id); err != nil {
			c.log.Error("failed to persist current track on close", "err", err)
		}
		if err := c.store.UpdatePosition(c.Position.Get()); err != nil {
			c.log.Error("failed to persist position on close", "err", err)
		}

		if c.ticker != nil {
			c.ticker.Stop()
		}
		c.adapter.Release()
		c.wg.Wait()
	})
}

// handleInitialized runs once per adapter lifetime, on the first
// successful connection, and rehydrates live state from the durable
// records. An empty durable queue or a missing current track id leaves
// the session idle; restore never synthesizes playback from nothing.
func (c *Controller) handleInitialized() {
	c.mu.Lock()
	if c.restored {
		c.mu.Unlock()
		return
	}
	c.restored = true
	c.mu.Unlock()

	defer c.Initialized.Set(true)

	// The configured default speed applies as soon as the engine is up; a
	// recorded session speed overrides it below.
	if speed := c.Speed.Get(); speed != 1.0 {
		c.adapter.SetSpeed(speed)
	}

	if err := c.store.EnsurePlaybackState(); err != nil {
		c.log.Error("failed to ensure playback state row", "err", err)
		return
	}
	state, err := c.store.PlaybackState()
	if err != nil {
		c.log.Error("failed to read playback state", "err", err)
		return
	}
	tracks, err := c.store.QueueTracks()
	if err != nil {
		c.log.Error("failed to read durable queue", "err", err)
		return
	}
	if len(tracks) == 0 || state.CurrentTrackID == nil {
		return
	}

	c.adapter.RestoreState(state.CurrentTrackID, state.PositionMs,
		state.RepeatMode, state.Shuffle, state.Speed, toItems(tracks))

	// Recorded track id missing from the queue falls back to index 0.
	index := 0
	for i, t := range tracks {
		if t.ID == *state.CurrentTrackID {
			index = i
			break
		}
	}

	c.mu.Lock()
	c.Queue.Set(tracks)
	c.QueueIndex.Set(index)
	track := tracks[index]
	c.CurrentTrack.Set(&track)
	c.Position.Set(state.PositionMs)
	c.Repeat.Set(state.RepeatMode)
	c.Shuffle.Set(state.Shuffle)
	c.Speed.Set(state.Speed)
	c.mu.Unlock()
}

// Play-now operations

// PlayTrack replaces the queue with a single track and plays it.
func (c *Controller) PlayTrack(track media.Track) {
	c.PlayTrackFromList([]media.Track{track}, 0)
}

// PlayTracks replaces the queue and plays from its head.
func (c *Controller) PlayTracks(tracks []media.Track) {
	c.PlayTrackFromList(tracks, 0)
}

// PlayTrackFromList replaces the queue and plays from startIndex. Live
// state updates before the call returns; the durable mirror follows in
// the background.
func (c *Controller) PlayTrackFromList(tracks []media.Track, startIndex int) {
	if len(tracks) == 0 {
		return
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}

	c.adapter.SetItems(toItems(tracks), startIndex, 0)
	c.adapter.Play()

	c.mu.Lock()
	queue := append([]media.Track(nil), tracks...)
	c.Queue.Set(queue)
	c.QueueIndex.Set(startIndex)
	track := queue[startIndex]
	c.CurrentTrack.Set(&track)
	c.Position.Set(0)
	c.Playing.Set(true)
	c.mirrorQueue(queue)
	c.mu.Unlock()

	id := track.ID
	c.async("persist current track", func() error { return c.store.UpdateCurrentTrack(&id) })
}

// Queue mutations

// AddToQueue appends a track to the end of the queue.
func (c *Controller) AddToQueue(track media.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.adapter.Append(engine.Item{ID: track.ID, URI: track.URI})

	queue := append(c.queueCopy(), track)
	c.Queue.Set(queue)
	c.mirrorQueue(queue)
}

// AddToQueueNext inserts a track immediately after the live current
// index, clamped to the queue bounds.
func (c *Controller) AddToQueueNext(track media.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queueCopy()
	at := c.QueueIndex.Get() + 1
	if at < 0 {
		at = 0
	}
	if at > len(queue) {
		at = len(queue)
	}

	c.adapter.Insert(at, engine.Item{ID: track.ID, URI: track.URI})

	queue = append(queue[:at], append([]media.Track{track}, queue[at:]...)...)
	c.Queue.Set(queue)
	c.mirrorQueue(queue)
}

// RemoveFromQueue removes the entry at index. Out-of-range indices are
// silently ignored.
func (c *Controller) RemoveFromQueue(index int) {
	c.mu.Lock()
	queue := c.queueCopy()
	if index < 0 || index >= len(queue) {
		c.mu.Unlock()
		return
	}

	queue = append(queue[:index], queue[index+1:]...)
	c.Queue.Set(queue)

	cur := c.QueueIndex.Get()
	if index < cur {
		c.QueueIndex.Set(cur - 1)
	} else if cur >= len(queue) && len(queue) > 0 {
		c.QueueIndex.Set(len(queue) - 1)
	} else if len(queue) == 0 {
		c.QueueIndex.Set(-1)
		c.CurrentTrack.Set(nil)
	}
	c.mirrorQueue(queue)
	c.mu.Unlock()

	// Outside the lock: removing the playing entry makes the engine load
	// its successor and call TrackChanged back into the controller.
	c.adapter.Remove(index)
}

// MoveQueueItem reorders the queue. Out-of-range indices are silently
// ignored.
func (c *Controller) MoveQueueItem(from, to int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	queue := c.queueCopy()
	if from < 0 || from >= len(queue) || to < 0 || to >= len(queue) || from == to {
		return
	}

	c.adapter.Move(from, to)

	item := queue[from]
	queue = append(queue[:from], queue[from+1:]...)
	queue = append(queue[:to], append([]media.Track{item}, queue[to:]...)...)
	c.Queue.Set(queue)

	cur := c.QueueIndex.Get()
	switch {
	case cur == from:
		c.QueueIndex.Set(to)
	case from < cur && to >= cur:
		c.QueueIndex.Set(cur - 1)
	case from > cur && to <= cur:
		c.QueueIndex.Set(cur + 1)
	}
	c.mirrorQueue(queue)
}

// ClearQueue empties the queue and stops playback.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	c.adapter.Clear()

	c.Queue.Set(nil)
	c.QueueIndex.Set(-1)
	c.CurrentTrack.Set(nil)
	c.Playing.Set(false)
	c.Position.Set(0)

	c.mirrorQueue(nil)
	c.mu.Unlock()

	c.async("clear current track", func() error { return c.store.UpdateCurrentTrack(nil) })
}

// Transport

func (c *Controller) Play()            { c.adapter.Play() }
func (c *Controller) Pause()           { c.adapter.Pause() }
func (c *Controller) TogglePlayPause() { c.adapter.TogglePlayPause() }
func (c *Controller) Next()            { c.adapter.Next() }
func (c *Controller) Previous()        { c.adapter.Previous() }

// JumpTo starts playback of the queue entry at index.
func (c *Controller) JumpTo(index int) {
	if index < 0 || index >= len(c.queueCopy()) {
		return
	}
	c.adapter.JumpTo(index)
	c.adapter.Play()
}

// Seek protocol: the display position follows the drag target while a
// scrub is active so the ticker cannot overwrite it, and the engine
// receives exactly one seek, on release.

func (c *Controller) OnSeekStart(positionMs int64) {
	c.mu.Lock()
	c.seeking = true
	c.seekTarget = positionMs
	c.mu.Unlock()
	c.Position.Set(positionMs)
}

func (c *Controller) OnSeekChange(positionMs int64) {
	c.mu.Lock()
	if !c.seeking {
		c.mu.Unlock()
		return
	}
	c.seekTarget = positionMs
	c.mu.Unlock()
	c.Position.Set(positionMs)
}

func (c *Controller) OnSeekEnd(positionMs int64) {
	c.mu.Lock()
	c.seeking = false
	c.mu.Unlock()
	c.adapter.SeekTo(positionMs)
	c.Position.Set(positionMs)
}

// SeekTo is a direct absolute seek without a scrub gesture.
func (c *Controller) SeekTo(positionMs int64) {
	c.adapter.SeekTo(positionMs)
	c.Position.Set(positionMs)
}

// Mode toggles

// ToggleRepeatMode advances the repeat cycle Off, All, One.
func (c *Controller) ToggleRepeatMode() {
	mode := c.Repeat.Get().Cycle()
	c.adapter.SetRepeatMode(mode)
	c.Repeat.Set(mode)
	c.async("persist repeat mode", func() error { return c.store.UpdateRepeatMode(mode) })
}

// SetRepeatMode applies a specific repeat mode.
func (c *Controller) SetRepeatMode(mode media.RepeatMode) {
	c.adapter.SetRepeatMode(mode)
	c.Repeat.Set(mode)
	c.async("persist repeat mode", func() error { return c.store.UpdateRepeatMode(mode) })
}

// ToggleShuffle flips the shuffle flag.
func (c *Controller) ToggleShuffle() {
	c.SetShuffle(!c.Shuffle.Get())
}

// SetShuffle applies a specific shuffle flag.
func (c *Controller) SetShuffle(enabled bool) {
	c.adapter.SetShuffle(enabled)
	c.Shuffle.Set(enabled)
	c.async("persist shuffle", func() error { return c.store.UpdateShuffle(enabled) })
}

// SetPlaybackSpeed applies a playback speed multiplier.
func (c *Controller) SetPlaybackSpeed(speed float64) {
	if speed <= 0 {
		return
	}
	c.adapter.SetSpeed(speed)
	c.Speed.Set(speed)
	c.async("persist speed", func() error { return c.store.UpdateSpeed(speed) })
}

// Engine events. Applied in delivery order; each produces exactly one
// live-state update path.

func (c *Controller) PlayingChanged(playing bool) {
	c.Playing.Set(playing)
}

func (c *Controller) TrackChanged(index int) {
	c.mu.Lock()
	queue := c.Queue.Get()
	if index < 0 || index >= len(queue) {
		c.mu.Unlock()
		return
	}
	c.QueueIndex.Set(index)
	track := queue[index]
	c.CurrentTrack.Set(&track)
	c.Position.Set(0)
	c.mu.Unlock()

	id := track.ID
	c.async("persist current track", func() error { return c.store.UpdateCurrentTrack(&id) })
}

func (c *Controller) DurationChanged(durationMs int64) {
	c.Duration.Set(durationMs)
}

func (c *Controller) PlaybackEnded() {
	c.Playing.Set(false)
}

func (c *Controller) RepeatModeChanged(mode media.RepeatMode) {
	c.Repeat.Set(mode)
}

func (c *Controller) ShuffleChanged(enabled bool) {
	c.Shuffle.Set(enabled)
}

func (c *Controller) SpeedChanged(speed float64) {
	c.Speed.Set(speed)
}

// tick samples the engine position unless a scrub is in flight.
func (c *Controller) tick() {
	if !c.Playing.Get() {
		return
	}
	c.mu.Lock()
	seeking := c.seeking
	c.mu.Unlock()
	if seeking {
		return
	}
	c.Position.Set(c.adapter.PositionMs())
}

func (c *Controller) queueCopy() []media.Track {
	return append([]media.Track(nil), c.Queue.Get()...)
}

// mirrorQueue re-derives the durable queue from the live snapshot in the
// background. The store does a transactional whole-queue replacement, so
// a crash mid-mirror can never leave a partially renumbered queue.
func (c *Controller) mirrorQueue(queue []media.Track) {
	ids := make([]int64, len(queue))
	for i, t := range queue {
		ids[i] = t.ID
	}
	c.async("persist queue", func() error { return c.store.ReplaceQueue(ids) })
}

// async runs a durable mirror write off the interaction path. Failures
// are logged and swallowed; the live state stays authoritative.
func (c *Controller) async(op string, fn func() error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(); err != nil {
			c.log.Error("background persist failed", "op", op, "err", err)
		}
	}()
}

func toItems(tracks []media.Track) []engine.Item {
	items := make([]engine.Item, len(tracks))
	for i, t := range tracks {
		items[i] = engine.Item{ID: t.ID, URI: t.URI}
	}
	return items
}

// Verify Controller receives engine events at compile time.
var _ engine.Listener = (*Controller)(nil)
