package engine

import (
	"sync"

	"github.com/jdelattre/localwave/internal/media"
)

// Mock is a test double for Engine. It records commands and lets tests
// fire listener events.
type Mock struct {
	mu sync.Mutex

	listener Listener

	items      []Item
	index      int
	positionMs int64
	durationMs int64
	playing    bool
	repeatMode media.RepeatMode
	shuffle    bool
	speed      float64

	setItemsCalls []SetItemsCall
	seekCalls     []int64
	playCalls     int
	pauseCalls    int
	closed        bool
}

// SetItemsCall records one SetItems invocation.
type SetItemsCall struct {
	Items      []Item
	StartIndex int
	StartPosMs int64
}

func NewMock() *Mock {
	return &Mock{speed: 1.0}
}

func (m *Mock) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

func (m *Mock) SetItems(items []Item, startIndex int, startPositionMs int64) error {
	m.mu.Lock()
	m.items = append([]Item(nil), items...)
	m.index = startIndex
	m.positionMs = startPositionMs
	m.setItemsCalls = append(m.setItemsCalls, SetItemsCall{
		Items:      append([]Item(nil), items...),
		StartIndex: startIndex,
		StartPosMs: startPositionMs,
	})
	dur := m.durationMs
	l := m.listener
	m.mu.Unlock()

	// Preparing a track reports its duration, like the real engine.
	if len(items) > 0 && l != nil {
		l.DurationChanged(dur)
	}
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	m.playCalls++
	changed := !m.playing && len(m.items) > 0
	if changed {
		m.playing = true
	}
	l := m.listener
	m.mu.Unlock()
	if changed && l != nil {
		l.PlayingChanged(true)
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.pauseCalls++
	changed := m.playing
	m.playing = false
	l := m.listener
	m.mu.Unlock()
	if changed && l != nil {
		l.PlayingChanged(false)
	}
}

func (m *Mock) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) SeekTo(positionMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionMs = positionMs
	m.seekCalls = append(m.seekCalls, positionMs)
}

func (m *Mock) Next() {
	m.mu.Lock()
	if m.index < len(m.items)-1 {
		m.index++
		m.positionMs = 0
	}
	idx := m.index
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.TrackChanged(idx)
	}
}

func (m *Mock) Previous() {
	m.mu.Lock()
	if m.index > 0 {
		m.index--
	}
	m.positionMs = 0
	idx := m.index
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.TrackChanged(idx)
	}
}

func (m *Mock) JumpTo(index int) {
	m.mu.Lock()
	if index >= 0 && index < len(m.items) {
		m.index = index
		m.positionMs = 0
	}
	idx := m.index
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.TrackChanged(idx)
	}
}

func (m *Mock) Append(items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
}

func (m *Mock) Insert(index int, items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(m.items) {
		index = len(m.items)
	}
	m.items = append(m.items[:index], append(append([]Item(nil), items...), m.items[index:]...)...)
	if index <= m.index {
		m.index += len(items)
	}
}

func (m *Mock) Remove(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.items) {
		return
	}
	m.items = append(m.items[:index], m.items[index+1:]...)
	if index < m.index {
		m.index--
	}
	if m.index >= len(m.items) {
		m.index = len(m.items) - 1
	}
}

func (m *Mock) Move(from, to int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from < 0 || from >= len(m.items) || to < 0 || to >= len(m.items) {
		return
	}
	it := m.items[from]
	m.items = append(m.items[:from], m.items[from+1:]...)
	m.items = append(m.items[:to], append([]Item{it}, m.items[to:]...)...)
	switch {
	case m.index == from:
		m.index = to
	case from < m.index && to >= m.index:
		m.index--
	case from > m.index && to <= m.index:
		m.index++
	}
}

func (m *Mock) Clear() {
	m.mu.Lock()
	m.items = nil
	m.index = 0
	m.positionMs = 0
	changed := m.playing
	m.playing = false
	l := m.listener
	m.mu.Unlock()
	if changed && l != nil {
		l.PlayingChanged(false)
	}
}

func (m *Mock) SetRepeatMode(mode media.RepeatMode) {
	m.mu.Lock()
	m.repeatMode = mode
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.RepeatModeChanged(mode)
	}
}

func (m *Mock) SetShuffle(enabled bool) {
	m.mu.Lock()
	m.shuffle = enabled
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.ShuffleChanged(enabled)
	}
}

func (m *Mock) SetSpeed(speed float64) {
	m.mu.Lock()
	m.speed = speed
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.SpeedChanged(speed)
	}
}

func (m *Mock) PositionMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionMs
}

func (m *Mock) DurationMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.durationMs
}

func (m *Mock) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return -1
	}
	return m.index
}

func (m *Mock) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...)
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) SetItemsCalls() []SetItemsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SetItemsCall(nil), m.setItemsCalls...)
}

func (m *Mock) SeekCalls() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.seekCalls...)
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Mock) RepeatMode() media.RepeatMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.repeatMode
}

func (m *Mock) Shuffle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shuffle
}

func (m *Mock) Speed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speed
}

// SetPosition sets the reported position without recording a seek.
func (m *Mock) SetPosition(positionMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionMs = positionMs
}

// SetDuration sets the reported track duration.
func (m *Mock) SetDuration(durationMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durationMs = durationMs
}

// FireTrackChanged invokes the listener as the engine would on an
// automatic track transition.
func (m *Mock) FireTrackChanged(index int) {
	m.mu.Lock()
	m.index = index
	m.positionMs = 0
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.TrackChanged(index)
	}
}

// FireDurationChanged invokes the listener with a new track duration.
func (m *Mock) FireDurationChanged(durationMs int64) {
	m.mu.Lock()
	m.durationMs = durationMs
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.DurationChanged(durationMs)
	}
}

// FirePlaybackEnded invokes the listener as the engine would when the
// queue runs out.
func (m *Mock) FirePlaybackEnded() {
	m.mu.Lock()
	m.playing = false
	l := m.listener
	m.mu.Unlock()
	if l != nil {
		l.PlayingChanged(false)
		l.PlaybackEnded()
	}
}

// Verify Mock implements Engine at compile time.
var _ Engine = (*Mock)(nil)
