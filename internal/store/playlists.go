package store

import (
	"database/sql"
	"time"

	dbutil "github.com/jdelattre/localwave/internal/db"
	"github.com/jdelattre/localwave/internal/media"
)

// CreatePlaylist creates an empty playlist and returns its id.
func (s *Store) CreatePlaylist(name string) (int64, error) {
	now := time.Now().UnixMilli()
	res, err := s.db.Exec(`
		INSERT INTO playlists (name, created_at, updated_at) VALUES (?, ?, ?)
	`, name, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RenamePlaylist changes a playlist's name.
func (s *Store) RenamePlaylist(id int64, name string) error {
	_, err := s.db.Exec(`
		UPDATE playlists SET name = ?, updated_at = ? WHERE id = ?
	`, name, time.Now().UnixMilli(), id)
	return err
}

// DeletePlaylist removes a playlist and its entries.
func (s *Store) DeletePlaylist(id int64) error {
	_, err := s.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	return err
}

// AllPlaylists returns every playlist with its track count.
func (s *Store) AllPlaylists() ([]media.Playlist, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM playlist_tracks pt WHERE pt.playlist_id = p.id)
		FROM playlists p
		ORDER BY p.name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []media.Playlist
	for rows.Next() {
		var p media.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt, &p.TrackCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// AddTrackToPlaylist appends a track to the playlist.
func (s *Store) AddTrackToPlaylist(playlistID, trackID int64) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRow(`
			SELECT COALESCE(MAX(position), -1) + 1 FROM playlist_tracks WHERE playlist_id = ?
		`, playlistID).Scan(&next)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)
		`, playlistID, next, trackID); err != nil {
			return err
		}
		_, err = tx.Exec(`UPDATE playlists SET updated_at = ? WHERE id = ?`,
			time.Now().UnixMilli(), playlistID)
		return err
	})
}

// RemoveTrackFromPlaylist removes the first occurrence of trackID and
// renumbers the remaining entries to a contiguous sequence.
func (s *Store) RemoveTrackFromPlaylist(playlistID, trackID int64) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		rows, err := tx.Query(`
			SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position
		`, playlistID)
		if err != nil {
			return err
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		removed := false
		kept := ids[:0]
		for _, id := range ids {
			if !removed && id == trackID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		if !removed {
			return nil
		}

		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlistID); err != nil {
			return err
		}
		for i, id := range kept {
			if _, err := tx.Exec(`
				INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)
			`, playlistID, i, id); err != nil {
				return err
			}
		}
		_, err = tx.Exec(`UPDATE playlists SET updated_at = ? WHERE id = ?`,
			time.Now().UnixMilli(), playlistID)
		return err
	})
}

// renumberPlaylists rewrites every playlist's entries to contiguous
// positions, closing gaps left by cascaded track deletions.
func renumberPlaylists(tx *sql.Tx) error {
	rows, err := tx.Query(`
		SELECT playlist_id, track_id FROM playlist_tracks ORDER BY playlist_id, position
	`)
	if err != nil {
		return err
	}
	type entry struct{ playlistID, trackID int64 }
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.playlistID, &e.trackID); err != nil {
			rows.Close()
			return err
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM playlist_tracks`); err != nil {
		return err
	}
	pos := 0
	var last int64 = -1
	for _, e := range entries {
		if e.playlistID != last {
			last = e.playlistID
			pos = 0
		}
		if _, err := tx.Exec(`
			INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)
		`, e.playlistID, pos, e.trackID); err != nil {
			return err
		}
		pos++
	}
	return nil
}

// PlaylistTracks returns a playlist's tracks in playlist order.
func (s *Store) PlaylistTracks(playlistID int64) ([]media.Track, error) {
	rows, err := s.db.Query(`
		SELECT `+trackColumns+`
		FROM tracks t
		INNER JOIN playlist_tracks pt ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}
