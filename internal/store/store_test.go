package store

import (
	"database/sql"
	"fmt"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jdelattre/localwave/internal/media"
)

// setupTestStore creates a Store backed by an in-memory SQLite database.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("failed to set pragma: %v", err)
		}
	}

	if err := initSchema(db); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	return &Store{db: db}
}

// testTrack builds a minimal library track with a deterministic id.
func testTrack(id int64) media.Track {
	return media.Track{
		ID:           id,
		URI:          fmt.Sprintf("file:///music/%d.mp3", id),
		Title:        fmt.Sprintf("Track %d", id),
		Artist:       "Artist",
		Album:        "Album",
		AlbumID:      1,
		ArtistID:     1,
		DurationMs:   180_000,
		FilePath:     fmt.Sprintf("/music/%d.mp3", id),
		MimeType:     "audio/mpeg",
		Size:         1 << 20,
		TrackNumber:  int(id),
		DateAdded:    1000,
		DateModified: 1000,
	}
}

// seedLibrary inserts n tracks with ids 1..n.
func seedLibrary(t *testing.T, s *Store, n int) {
	t.Helper()
	tracks := make([]media.Track, 0, n)
	for i := 1; i <= n; i++ {
		tracks = append(tracks, testTrack(int64(i)))
	}
	albums := []media.Album{{ID: 1, Title: "Album", Artist: "Artist", ArtistID: 1, TrackCount: n}}
	artists := []media.Artist{{ID: 1, Name: "Artist", TrackCount: n, AlbumCount: 1}}
	if err := s.ReplaceLibrary(tracks, albums, artists); err != nil {
		t.Fatalf("ReplaceLibrary failed: %v", err)
	}
}
