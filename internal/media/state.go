package media

// RepeatMode defines the repeat behavior of the play queue.
//
// The ordinals are persisted in the playback state record; do not reorder.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// Cycle returns the next mode in the toggle order Off -> All -> One -> Off.
// The order intentionally differs from the declaration order: toggling
// first enables whole-queue repeat, then single-track repeat.
func (m RepeatMode) Cycle() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	case RepeatOne:
		return RepeatOff
	default:
		return RepeatOff
	}
}

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// PlaybackState is the durable snapshot of the session: the single-row
// record restored on startup. CurrentTrackID is nil when nothing was
// playing when the state was last saved.
type PlaybackState struct {
	CurrentTrackID *int64
	PositionMs     int64
	RepeatMode     RepeatMode
	Shuffle        bool
	Speed          float64
}

// DefaultPlaybackState returns the state written when the record is first
// created.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{Speed: 1.0}
}
