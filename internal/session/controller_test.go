package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jdelattre/localwave/internal/engine"
	"github.com/jdelattre/localwave/internal/logging"
	"github.com/jdelattre/localwave/internal/media"
)

// fakeStore is an in-memory Store recording mirror writes.
type fakeStore struct {
	mu sync.Mutex

	state   media.PlaybackState
	ensured int
	queue   []int64
	tracks  map[int64]media.Track

	replaceCalls  [][]int64
	trackUpdates  []*int64
	positionSaves []int64
	failWrites    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		state:  media.DefaultPlaybackState(),
		tracks: make(map[int64]media.Track),
	}
}

func (f *fakeStore) EnsurePlaybackState() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return nil
}

func (f *fakeStore) PlaybackState() (media.PlaybackState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeStore) UpdateCurrentTrack(trackID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	if trackID != nil {
		v := *trackID
		trackID = &v
	}
	f.trackUpdates = append(f.trackUpdates, trackID)
	f.state.CurrentTrackID = trackID
	return nil
}

func (f *fakeStore) UpdatePosition(positionMs int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.positionSaves = append(f.positionSaves, positionMs)
	f.state.PositionMs = positionMs
	return nil
}

func (f *fakeStore) UpdateRepeatMode(mode media.RepeatMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.state.RepeatMode = mode
	return nil
}

func (f *fakeStore) UpdateShuffle(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.state.Shuffle = enabled
	return nil
}

func (f *fakeStore) UpdateSpeed(speed float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.state.Speed = speed
	return nil
}

func (f *fakeStore) ReplaceQueue(trackIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	f.queue = append([]int64(nil), trackIDs...)
	f.replaceCalls = append(f.replaceCalls, append([]int64(nil), trackIDs...))
	return nil
}

func (f *fakeStore) QueueTracks() ([]media.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tracks []media.Track
	for _, id := range f.queue {
		if t, ok := f.tracks[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func (f *fakeStore) storedQueue() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.queue...)
}

func (f *fakeStore) replaceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replaceCalls)
}

func (f *fakeStore) storedState() media.PlaybackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeStore) ensureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensured
}

func sessionTrack(id int64) media.Track {
	return media.Track{ID: id, URI: "file:///music/x.mp3", Title: "Track"}
}

// newTestController wires a controller to a mock engine and fake store,
// started and ready.
func newTestController(t *testing.T) (*Controller, *engine.Mock, *fakeStore) {
	t.Helper()
	mock := engine.NewMock()
	st := newFakeStore()
	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.Start()
	t.Cleanup(c.Close)
	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)
	return c, mock, st
}

func TestController_PlayTrackFromListOptimisticState(t *testing.T) {
	c, mock, st := newTestController(t)

	tracks := []media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}
	c.PlayTrackFromList(tracks, 1)

	// Live state is visible immediately after the call returns.
	require.Equal(t, 1, c.QueueIndex.Get())
	require.Equal(t, int64(2), c.CurrentTrack.Get().ID)
	require.Len(t, c.Queue.Get(), 3)
	require.True(t, c.Playing.Get())
	require.True(t, mock.IsPlaying())

	// The durable mirror follows asynchronously.
	require.Eventually(t, func() bool {
		q := st.storedQueue()
		return len(q) == 3 && q[0] == 1 && q[1] == 2 && q[2] == 3
	}, time.Second, time.Millisecond)
}

func TestController_MirrorFailureKeepsLiveState(t *testing.T) {
	c, _, st := newTestController(t)
	st.mu.Lock()
	st.failWrites = errors.New("disk full")
	st.mu.Unlock()

	c.PlayTrack(sessionTrack(7))

	require.Equal(t, int64(7), c.CurrentTrack.Get().ID)
	require.Len(t, c.Queue.Get(), 1)
	require.Empty(t, st.storedQueue())
}

func TestController_AddToQueueNextInsertsAfterCurrent(t *testing.T) {
	c, mock, st := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}, 0)
	c.AddToQueueNext(sessionTrack(4))

	queue := c.Queue.Get()
	require.Equal(t, []int64{1, 4, 2, 3}, trackIDs(queue))
	require.Equal(t, int64(4), mock.Items()[1].ID)

	require.Eventually(t, func() bool {
		q := st.storedQueue()
		return len(q) == 4 && q[1] == 4
	}, time.Second, time.Millisecond)
}

func TestController_AddToQueueNextAtEndAppends(t *testing.T) {
	c, _, _ := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2)}, 1)
	c.AddToQueueNext(sessionTrack(3))

	require.Equal(t, []int64{1, 2, 3}, trackIDs(c.Queue.Get()))
}

func TestController_AddToQueueNextEmptyQueue(t *testing.T) {
	c, _, _ := newTestController(t)

	c.AddToQueueNext(sessionTrack(1))
	require.Equal(t, []int64{1}, trackIDs(c.Queue.Get()))
}

func TestController_OutOfRangeIndicesAreIgnored(t *testing.T) {
	c, mock, st := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}, 0)
	require.Eventually(t, func() bool { return st.replaceCount() == 1 },
		time.Second, time.Millisecond)

	before := trackIDs(c.Queue.Get())
	c.RemoveFromQueue(99)
	c.RemoveFromQueue(-1)
	c.MoveQueueItem(-1, 0)
	c.MoveQueueItem(0, 99)

	require.Equal(t, before, trackIDs(c.Queue.Get()))
	require.Equal(t, before, itemIDs(mock.Items()))
	// No extra durable writes were issued.
	require.Equal(t, 1, st.replaceCount())
}

func TestController_RemoveFromQueue(t *testing.T) {
	c, mock, st := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}, 2)
	c.RemoveFromQueue(0)

	require.Equal(t, []int64{2, 3}, trackIDs(c.Queue.Get()))
	require.Equal(t, 1, c.QueueIndex.Get(), "current index shifts down with the removal")
	require.Equal(t, []int64{2, 3}, itemIDs(mock.Items()))

	require.Eventually(t, func() bool {
		q := st.storedQueue()
		return len(q) == 2 && q[0] == 2
	}, time.Second, time.Millisecond)
}

func TestController_MoveQueueItem(t *testing.T) {
	c, _, _ := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}, 0)
	c.MoveQueueItem(0, 2)

	require.Equal(t, []int64{2, 3, 1}, trackIDs(c.Queue.Get()))
	require.Equal(t, 2, c.QueueIndex.Get(), "index follows the moved current track")
}

func TestController_ClearQueue(t *testing.T) {
	c, mock, st := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2)}, 0)
	c.ClearQueue()

	require.Empty(t, c.Queue.Get())
	require.Equal(t, -1, c.QueueIndex.Get())
	require.Nil(t, c.CurrentTrack.Get())
	require.False(t, c.Playing.Get())
	require.Empty(t, mock.Items())

	require.Eventually(t, func() bool { return len(st.storedQueue()) == 0 },
		time.Second, time.Millisecond)
}

func TestController_SeekProtocol(t *testing.T) {
	c, mock, _ := newTestController(t)
	c.PlayTrack(sessionTrack(1))
	mock.SetPosition(123)

	c.OnSeekStart(500)
	c.OnSeekChange(800)

	// Display position follows the drag, not the engine.
	require.Equal(t, int64(800), c.Position.Get())
	time.Sleep(50 * time.Millisecond) // let the ticker run; it must not interfere
	require.Equal(t, int64(800), c.Position.Get())
	require.Empty(t, mock.SeekCalls(), "no engine seek before the drag ends")

	c.OnSeekEnd(800)
	require.Equal(t, []int64{800}, mock.SeekCalls(), "exactly one engine seek")

	// After the drag the ticker tracks the engine again.
	mock.SetPosition(900)
	require.Eventually(t, func() bool { return c.Position.Get() == 900 },
		time.Second, time.Millisecond)
}

func TestController_ToggleRepeatModeCycle(t *testing.T) {
	c, mock, st := newTestController(t)

	want := []media.RepeatMode{media.RepeatAll, media.RepeatOne, media.RepeatOff, media.RepeatAll}
	for _, mode := range want {
		c.ToggleRepeatMode()
		require.Equal(t, mode, c.Repeat.Get())
		require.Equal(t, mode, mock.RepeatMode())
	}

	require.Eventually(t, func() bool {
		return st.storedState().RepeatMode == media.RepeatAll
	}, time.Second, time.Millisecond)
}

func TestController_ToggleShuffle(t *testing.T) {
	c, mock, st := newTestController(t)

	c.ToggleShuffle()
	require.True(t, c.Shuffle.Get())
	require.True(t, mock.Shuffle())
	require.Eventually(t, func() bool { return st.storedState().Shuffle },
		time.Second, time.Millisecond)

	c.ToggleShuffle()
	require.False(t, c.Shuffle.Get())
}

func TestController_SetPlaybackSpeed(t *testing.T) {
	c, mock, st := newTestController(t)

	c.SetPlaybackSpeed(1.5)
	require.Equal(t, 1.5, c.Speed.Get())
	require.Equal(t, 1.5, mock.Speed())
	require.Eventually(t, func() bool { return st.storedState().Speed == 1.5 },
		time.Second, time.Millisecond)

	c.SetPlaybackSpeed(0) // invalid, ignored
	require.Equal(t, 1.5, c.Speed.Get())
}

func TestController_RestoreRoundTrip(t *testing.T) {
	mock := engine.NewMock()
	mock.SetDuration(185000)
	st := newFakeStore()
	for _, id := range []int64{10, 20, 30} {
		st.tracks[id] = sessionTrack(id)
	}
	st.queue = []int64{10, 20, 30}
	target := int64(20)
	st.state = media.PlaybackState{
		CurrentTrackID: &target,
		PositionMs:     15000,
		RepeatMode:     media.RepeatAll,
		Shuffle:        true,
		Speed:          1.5,
	}

	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.Start()
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)

	require.Equal(t, int64(20), c.CurrentTrack.Get().ID)
	require.Equal(t, 1, c.QueueIndex.Get())
	require.Equal(t, media.RepeatAll, c.Repeat.Get())
	require.True(t, c.Shuffle.Get())
	require.Equal(t, 1.5, c.Speed.Get())
	require.Equal(t, int64(15000), c.Position.Get())
	require.Equal(t, int64(185000), c.Duration.Get(),
		"restored track length shows before the first transition")
	require.False(t, c.Playing.Get(), "restore leaves the engine paused")
	require.False(t, mock.IsPlaying())

	calls := mock.SetItemsCalls()
	require.Len(t, calls, 1)
	require.Equal(t, 1, calls[0].StartIndex)
	require.Equal(t, int64(15000), calls[0].StartPosMs)
	require.Equal(t, 1, st.ensureCount(), "restore runs exactly once")
}

func TestController_RestoreSkippedWhenQueueEmpty(t *testing.T) {
	c, mock, st := newTestController(t)

	require.Eventually(t, func() bool { return st.ensureCount() == 1 },
		time.Second, time.Millisecond)
	require.Empty(t, mock.SetItemsCalls(), "no restore without a durable queue")
	require.Nil(t, c.CurrentTrack.Get())
	require.Equal(t, -1, c.QueueIndex.Get())
}

func TestController_RestoreSkippedWithoutCurrentTrack(t *testing.T) {
	mock := engine.NewMock()
	st := newFakeStore()
	st.tracks[10] = sessionTrack(10)
	st.queue = []int64{10}
	// No current track id recorded.

	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.Start()
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)
	require.Empty(t, mock.SetItemsCalls())
	require.Nil(t, c.CurrentTrack.Get())
}

func TestController_TrackChangedEventUpdatesState(t *testing.T) {
	c, mock, st := newTestController(t)

	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2)}, 0)
	mock.FireTrackChanged(1) // auto-advance from the engine

	require.Eventually(t, func() bool {
		ct := c.CurrentTrack.Get()
		return ct != nil && ct.ID == 2 && c.QueueIndex.Get() == 1
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		s := st.storedState()
		return s.CurrentTrackID != nil && *s.CurrentTrackID == 2
	}, time.Second, time.Millisecond)
}

func TestController_PlaybackEndedForcesPaused(t *testing.T) {
	c, mock, _ := newTestController(t)

	c.PlayTrack(sessionTrack(1))
	require.True(t, c.Playing.Get())

	mock.FirePlaybackEnded()
	require.Eventually(t, func() bool { return !c.Playing.Get() },
		time.Second, time.Millisecond)
}

func TestController_CloseSavesTrackAndPosition(t *testing.T) {
	mock := engine.NewMock()
	st := newFakeStore()
	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.Start()
	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)

	c.PlayTrack(sessionTrack(5))
	mock.SetPosition(42000)
	require.Eventually(t, func() bool { return c.Position.Get() == 42000 },
		time.Second, time.Millisecond)

	c.Close()
	c.Close() // idempotent

	s := st.storedState()
	require.NotNil(t, s.CurrentTrackID)
	require.Equal(t, int64(5), *s.CurrentTrackID)
	require.Equal(t, int64(42000), s.PositionMs)
	require.True(t, mock.Closed())
}

func TestController_TickerSamplesOnlyWhilePlaying(t *testing.T) {
	c, mock, _ := newTestController(t)

	mock.SetPosition(1000)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, c.Position.Get(), "ticker must not publish while paused")

	c.PlayTrack(sessionTrack(1))
	mock.SetPosition(2000)
	require.Eventually(t, func() bool { return c.Position.Get() == 2000 },
		time.Second, time.Millisecond)
}

// Commands arrive concurrently from the UI, the MPRIS goroutine and
// engine callbacks; every append must survive the interleaving.
func TestController_ConcurrentAddToQueue(t *testing.T) {
	c, mock, st := newTestController(t)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 1; i <= n; i++ {
		go func(id int64) {
			defer wg.Done()
			c.AddToQueue(sessionTrack(id))
		}(int64(i))
	}
	wg.Wait()

	require.Len(t, c.Queue.Get(), n, "no append may be lost")
	require.Len(t, mock.Items(), n)

	seen := make(map[int64]bool, n)
	for _, id := range trackIDs(c.Queue.Get()) {
		seen[id] = true
	}
	require.Len(t, seen, n, "every track appears exactly once")

	// Each append mirrors one whole-queue snapshot.
	require.Eventually(t, func() bool { return st.replaceCount() == n },
		time.Second, time.Millisecond)
}

func TestController_ConcurrentMutationsKeepQueueConsistent(t *testing.T) {
	c, mock, _ := newTestController(t)
	c.PlayTrackFromList([]media.Track{sessionTrack(1), sessionTrack(2), sessionTrack(3)}, 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func(id int64) {
			defer wg.Done()
			c.AddToQueue(sessionTrack(id))
		}(int64(100 + i))
		go func() {
			defer wg.Done()
			c.AddToQueueNext(sessionTrack(200))
		}()
		go func() {
			defer wg.Done()
			c.MoveQueueItem(0, 1)
		}()
	}
	wg.Wait()

	// 3 initial + 20 appends + 20 inserts, regardless of interleaving.
	require.Len(t, c.Queue.Get(), 43)
	require.Equal(t, trackIDs(c.Queue.Get()), itemIDs(mock.Items()),
		"live queue and engine playlist agree")
}

func TestController_PlayPublishesDuration(t *testing.T) {
	c, mock, _ := newTestController(t)
	mock.SetDuration(185000)

	c.PlayTrack(sessionTrack(1))

	require.Eventually(t, func() bool { return c.Duration.Get() == 185000 },
		time.Second, time.Millisecond, "duration known as soon as the track is prepared")
}

func TestController_DefaultSpeedAppliedWithoutSession(t *testing.T) {
	mock := engine.NewMock()
	st := newFakeStore()
	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.SetDefaultSpeed(1.25)
	c.Start()
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)

	require.Equal(t, 1.25, c.Speed.Get())
	require.Equal(t, 1.25, mock.Speed())
	// The configured default is not a session write.
	require.Equal(t, media.DefaultPlaybackState().Speed, st.storedState().Speed)
}

func TestController_RestoredSpeedOverridesDefault(t *testing.T) {
	mock := engine.NewMock()
	st := newFakeStore()
	st.tracks[10] = sessionTrack(10)
	st.queue = []int64{10}
	target := int64(10)
	st.state = media.PlaybackState{
		CurrentTrackID: &target,
		RepeatMode:     media.RepeatOff,
		Speed:          1.5,
	}

	adapter := NewAdapter(connectMock(mock, nil), logging.NewTestLogger())
	c := NewController(adapter, st, 10*time.Millisecond, logging.NewTestLogger())
	c.SetDefaultSpeed(2.0)
	c.Start()
	t.Cleanup(c.Close)

	require.Eventually(t, func() bool { return c.Initialized.Get() },
		time.Second, time.Millisecond)

	require.Equal(t, 1.5, c.Speed.Get(), "recorded session speed wins")
	require.Equal(t, 1.5, mock.Speed())
}

func trackIDs(tracks []media.Track) []int64 {
	ids := make([]int64, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func itemIDs(items []engine.Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
