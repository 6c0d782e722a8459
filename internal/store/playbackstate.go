package store

import (
	"database/sql"
	"errors"

	dbutil "github.com/jdelattre/localwave/internal/db"
	"github.com/jdelattre/localwave/internal/media"
)

// EnsurePlaybackState creates the singleton playback-state row with default
// values if it does not exist yet. INSERT OR IGNORE makes this safe under
// concurrent callers: exactly one row ever exists.
func (s *Store) EnsurePlaybackState() error {
	def := media.DefaultPlaybackState()
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO playback_state (id, current_track_id, position_ms, repeat_mode, shuffle, speed)
		VALUES (1, NULL, ?, ?, ?, ?)
	`, def.PositionMs, int(def.RepeatMode), def.Shuffle, def.Speed)
	return err
}

// PlaybackState returns the stored snapshot, or defaults if the row has
// never been created.
func (s *Store) PlaybackState() (media.PlaybackState, error) {
	var (
		trackID sql.NullInt64
		state   media.PlaybackState
		mode    int
	)
	row := s.db.QueryRow(`SELECT current_track_id, position_ms, repeat_mode, shuffle, speed FROM playback_state WHERE id = 1`)
	err := row.Scan(&trackID, &state.PositionMs, &mode, &state.Shuffle, &state.Speed)
	if errors.Is(err, sql.ErrNoRows) {
		return media.DefaultPlaybackState(), nil
	}
	if err != nil {
		return media.PlaybackState{}, err
	}

	state.CurrentTrackID = dbutil.NullInt64ToPtr(trackID)
	state.RepeatMode = media.RepeatMode(mode)
	return state, nil
}

// UpdateCurrentTrack records the current track id (nil clears it).
func (s *Store) UpdateCurrentTrack(trackID *int64) error {
	var v any
	if trackID != nil {
		v = *trackID
	}
	_, err := s.db.Exec(`UPDATE playback_state SET current_track_id = ? WHERE id = 1`, v)
	return err
}

// UpdatePosition records the playback position in milliseconds.
func (s *Store) UpdatePosition(positionMs int64) error {
	_, err := s.db.Exec(`UPDATE playback_state SET position_ms = ? WHERE id = 1`, positionMs)
	return err
}

// UpdateRepeatMode records the repeat mode.
func (s *Store) UpdateRepeatMode(mode media.RepeatMode) error {
	_, err := s.db.Exec(`UPDATE playback_state SET repeat_mode = ? WHERE id = 1`, int(mode))
	return err
}

// UpdateShuffle records the shuffle flag.
func (s *Store) UpdateShuffle(enabled bool) error {
	_, err := s.db.Exec(`UPDATE playback_state SET shuffle = ? WHERE id = 1`, enabled)
	return err
}

// UpdateSpeed records the playback speed.
func (s *Store) UpdateSpeed(speed float64) error {
	_, err := s.db.Exec(`UPDATE playback_state SET speed = ? WHERE id = 1`, speed)
	return err
}
