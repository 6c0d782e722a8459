package library

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jdelattre/localwave/internal/logging"
	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/store"
)

func setupScanner(t *testing.T) (*Scanner, *store.Store) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st, err := store.FromDB(db)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return NewScanner(st, logging.NewTestLogger()), st
}

// writeFile creates a file with an audio extension. The content is not a
// valid audio stream, so the scanner falls back to filename metadata.
func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestScan_IndexesAudioFiles(t *testing.T) {
	s, st := setupScanner(t)
	dir := t.TempDir()

	writeFile(t, dir, "one.mp3")
	writeFile(t, dir, "sub/two.flac")
	writeFile(t, dir, "notes.txt") // not audio, skipped

	if err := s.Scan(context.Background(), []string{dir}, nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	tracks, err := st.AllTracks()
	if err != nil {
		t.Fatalf("AllTracks failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(tracks))
	}

	byTitle := map[string]media.Track{}
	for _, tr := range tracks {
		byTitle[tr.Title] = tr
	}
	one, ok := byTitle["one"]
	if !ok {
		t.Fatalf("track 'one' missing, got %v", byTitle)
	}
	if one.Artist != unknownArtist || one.Album != unknownAlbum {
		t.Errorf("fallback metadata = %q/%q, want unknowns", one.Artist, one.Album)
	}
	if one.MimeType != "audio/mpeg" {
		t.Errorf("MimeType = %q, want audio/mpeg", one.MimeType)
	}
	if one.ID != media.TrackID(one.FilePath) {
		t.Errorf("ID = %d, want path hash %d", one.ID, media.TrackID(one.FilePath))
	}
}

func TestScan_StableIDsAcrossRescans(t *testing.T) {
	s, st := setupScanner(t)
	dir := t.TempDir()
	writeFile(t, dir, "keep.mp3")
	gone := writeFile(t, dir, "gone.mp3")

	if err := s.Scan(context.Background(), []string{dir}, nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	first, err := st.AllTracks()
	if err != nil {
		t.Fatalf("AllTracks failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("len(tracks) = %d, want 2", len(first))
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := s.Scan(context.Background(), []string{dir}, nil); err != nil {
		t.Fatalf("rescan failed: %v", err)
	}

	second, err := st.AllTracks()
	if err != nil {
		t.Fatalf("AllTracks failed: %v", err)
	}
	if len(second) != 1 || second[0].Title != "keep" {
		t.Fatalf("tracks after rescan = %v, want only keep", second)
	}
	if second[0].ID != media.TrackID(second[0].FilePath) {
		t.Error("id changed across rescans")
	}
}

func TestScan_ReportsProgressAndCloses(t *testing.T) {
	s, _ := setupScanner(t)
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		writeFile(t, dir, name)
	}

	progress := make(chan Progress, 64)
	if err := s.Scan(context.Background(), []string{dir}, progress); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	var last Progress
	var got bool
	for p := range progress {
		last = p
		got = true
	}
	if !got {
		t.Fatal("no progress updates received")
	}
	if last.Processed != 3 || last.Total != 3 {
		t.Errorf("final progress = %+v, want 3/3", last)
	}
}

func TestScan_AggregatesAlbumsAndArtists(t *testing.T) {
	s, st := setupScanner(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")
	writeFile(t, dir, "b.mp3")

	if err := s.Scan(context.Background(), []string{dir}, nil); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Both fall back to the same unknown artist and album.
	albums, err := st.AllAlbums()
	if err != nil {
		t.Fatalf("AllAlbums failed: %v", err)
	}
	if len(albums) != 1 || albums[0].TrackCount != 2 {
		t.Errorf("albums = %+v, want one album with 2 tracks", albums)
	}

	artists, err := st.AllArtists()
	if err != nil {
		t.Fatalf("AllArtists failed: %v", err)
	}
	if len(artists) != 1 || artists[0].TrackCount != 2 || artists[0].AlbumCount != 1 {
		t.Errorf("artists = %+v, want one artist with 2 tracks and 1 album", artists)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	s, _ := setupScanner(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Scan(ctx, []string{dir}, nil); err == nil {
		t.Error("Scan with cancelled context should fail")
	}
}
