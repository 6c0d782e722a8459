// Package media defines the domain types shared by the library, the
// durable stores and the playback session.
package media

import (
	"fmt"
	"hash/fnv"
	"time"
)

// TrackID derives a stable track id from the file path. Path-derived ids
// survive rescans, so queue and playlist references stay valid as long as
// the file does not move.
func TrackID(path string) int64 {
	return hashID(path)
}

// AlbumID derives a stable album id from the album artist and title.
func AlbumID(artist, title string) int64 {
	return hashID(artist + "\x00" + title)
}

// ArtistID derives a stable artist id from the artist name.
func ArtistID(name string) int64 {
	return hashID(name)
}

func hashID(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// Track is a single indexed audio file. Tracks are immutable once scanned;
// a rescan replaces the library records wholesale.
type Track struct {
	ID           int64 // stable FNV-64a hash of the file path
	URI          string
	Title        string
	Artist       string
	Album        string
	AlbumID      int64
	ArtistID     int64
	DurationMs   int64
	FilePath     string
	MimeType     string
	Size         int64
	TrackNumber  int
	Year         int
	DateAdded    int64 // unix milliseconds
	DateModified int64 // unix milliseconds
	ArtworkPath  string
}

// Duration returns the track duration as a time.Duration.
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// FormattedDuration returns the duration as m:ss for display.
func (t Track) FormattedDuration() string {
	total := t.DurationMs / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Album groups tracks sharing an album id.
type Album struct {
	ID          int64
	Title       string
	Artist      string
	ArtistID    int64
	ArtworkPath string
	Year        int
	TrackCount  int
}

// Artist groups tracks and albums sharing an artist id.
type Artist struct {
	ID         int64
	Name       string
	TrackCount int
	AlbumCount int
}

// Playlist is a named, ordered collection of track references.
type Playlist struct {
	ID         int64
	Name       string
	TrackCount int
	CreatedAt  int64
	UpdatedAt  int64
}
