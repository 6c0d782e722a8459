package store

import (
	"database/sql"
	"errors"

	dbutil "github.com/jdelattre/localwave/internal/db"
	"github.com/jdelattre/localwave/internal/media"
)

const trackColumns = `t.id, t.uri, t.title, t.artist, t.album, t.album_id, t.artist_id,
	t.duration_ms, t.file_path, t.mime_type, t.size, t.track_number, t.year,
	t.date_added, t.date_modified, t.artwork_path`

func scanTrack(row interface{ Scan(...any) error }) (media.Track, error) {
	var (
		t           media.Track
		trackNumber sql.NullInt64
		year        sql.NullInt64
		artwork     sql.NullString
	)
	err := row.Scan(&t.ID, &t.URI, &t.Title, &t.Artist, &t.Album, &t.AlbumID, &t.ArtistID,
		&t.DurationMs, &t.FilePath, &t.MimeType, &t.Size, &trackNumber, &year,
		&t.DateAdded, &t.DateModified, &artwork)
	if err != nil {
		return media.Track{}, err
	}
	t.TrackNumber = int(dbutil.NullInt64Value(trackNumber))
	t.Year = int(dbutil.NullInt64Value(year))
	t.ArtworkPath = dbutil.NullStringValue(artwork)
	return t, nil
}

func scanTracks(rows *sql.Rows) ([]media.Track, error) {
	var tracks []media.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// ReplaceLibrary replaces the track/album/artist tables with the scan
// result. Tracks keep their path-derived ids across rescans, so existing
// rows are upserted and only tracks whose files disappeared are deleted
// (cascading their queue and playlist entries).
func (s *Store) ReplaceLibrary(tracks []media.Track, albums []media.Album, artists []media.Artist) error {
	keep := make(map[int64]bool, len(tracks))
	for _, t := range tracks {
		keep[t.ID] = true
	}

	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id FROM tracks`)
		if err != nil {
			return err
		}
		var stale []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			if !keep[id] {
				stale = append(stale, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range stale {
			if _, err := tx.Exec(`DELETE FROM tracks WHERE id = ?`, id); err != nil {
				return err
			}
		}

		// Pruned tracks cascade their queue and playlist rows away,
		// leaving position gaps; renumber so contiguity holds without
		// waiting for the next whole-queue rewrite.
		if len(stale) > 0 {
			items, err := readQueue(tx)
			if err != nil {
				return err
			}
			if err := writeQueue(tx, items); err != nil {
				return err
			}
			if err := renumberPlaylists(tx); err != nil {
				return err
			}
		}

		stmt, err := tx.Prepare(`
			INSERT INTO tracks (id, uri, title, artist, album, album_id, artist_id,
				duration_ms, file_path, mime_type, size, track_number, year,
				date_added, date_modified, artwork_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				uri = excluded.uri,
				title = excluded.title,
				artist = excluded.artist,
				album = excluded.album,
				album_id = excluded.album_id,
				artist_id = excluded.artist_id,
				duration_ms = excluded.duration_ms,
				file_path = excluded.file_path,
				mime_type = excluded.mime_type,
				size = excluded.size,
				track_number = excluded.track_number,
				year = excluded.year,
				date_modified = excluded.date_modified,
				artwork_path = excluded.artwork_path
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range tracks {
			_, err := stmt.Exec(t.ID, t.URI, t.Title, t.Artist, t.Album, t.AlbumID, t.ArtistID,
				t.DurationMs, t.FilePath, t.MimeType, t.Size, t.TrackNumber, t.Year,
				t.DateAdded, t.DateModified, t.ArtworkPath)
			if err != nil {
				return err
			}
		}

		if _, err := tx.Exec(`DELETE FROM albums`); err != nil {
			return err
		}
		for _, a := range albums {
			_, err := tx.Exec(`
				INSERT INTO albums (id, title, artist, artist_id, artwork_path, year, track_count)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, a.ID, a.Title, a.Artist, a.ArtistID, a.ArtworkPath, a.Year, a.TrackCount)
			if err != nil {
				return err
			}
		}

		if _, err := tx.Exec(`DELETE FROM artists`); err != nil {
			return err
		}
		for _, a := range artists {
			_, err := tx.Exec(`
				INSERT INTO artists (id, name, track_count, album_count)
				VALUES (?, ?, ?, ?)
			`, a.ID, a.Name, a.TrackCount, a.AlbumCount)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// AllTracks returns every library track ordered by title.
func (s *Store) AllTracks() ([]media.Track, error) {
	rows, err := s.db.Query(`SELECT ` + trackColumns + ` FROM tracks t ORDER BY t.title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}

// TrackByID returns the track with the given id, or nil if absent.
func (s *Store) TrackByID(id int64) (*media.Track, error) {
	row := s.db.QueryRow(`SELECT `+trackColumns+` FROM tracks t WHERE t.id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TracksByIDs resolves ids against the library, preserving the input order
// and skipping ids that no longer resolve.
func (s *Store) TracksByIDs(ids []int64) ([]media.Track, error) {
	byID := make(map[int64]media.Track, len(ids))
	for _, id := range ids {
		t, err := s.TrackByID(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			byID[id] = *t
		}
	}

	tracks := make([]media.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

// TracksByAlbum returns an album's tracks in track-number order.
func (s *Store) TracksByAlbum(albumID int64) ([]media.Track, error) {
	rows, err := s.db.Query(`
		SELECT `+trackColumns+` FROM tracks t
		WHERE t.album_id = ?
		ORDER BY t.track_number, t.title COLLATE NOCASE
	`, albumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}

// TracksByArtist returns an artist's tracks ordered by album then number.
func (s *Store) TracksByArtist(artistID int64) ([]media.Track, error) {
	rows, err := s.db.Query(`
		SELECT `+trackColumns+` FROM tracks t
		WHERE t.artist_id = ?
		ORDER BY t.album COLLATE NOCASE, t.track_number
	`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}

// SearchTracks returns tracks whose title, artist or album contains query.
func (s *Store) SearchTracks(query string) ([]media.Track, error) {
	like := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT `+trackColumns+` FROM tracks t
		WHERE t.title LIKE ? OR t.artist LIKE ? OR t.album LIKE ?
		ORDER BY t.title COLLATE NOCASE
	`, like, like, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTracks(rows)
}

// AllAlbums returns every album ordered by title.
func (s *Store) AllAlbums() ([]media.Album, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, artist_id, artwork_path, year, track_count
		FROM albums ORDER BY title COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []media.Album
	for rows.Next() {
		var (
			a       media.Album
			artwork sql.NullString
			year    sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Artist, &a.ArtistID, &artwork, &year, &a.TrackCount); err != nil {
			return nil, err
		}
		a.ArtworkPath = dbutil.NullStringValue(artwork)
		a.Year = int(dbutil.NullInt64Value(year))
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// AllArtists returns every artist ordered by name.
func (s *Store) AllArtists() ([]media.Artist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, track_count, album_count
		FROM artists ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []media.Artist
	for rows.Next() {
		var a media.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.TrackCount, &a.AlbumCount); err != nil {
			return nil, err
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}
