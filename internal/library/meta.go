package library

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/jdelattre/localwave/internal/media"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

var mimeByExt = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
}

func isAudioFile(path string) bool {
	_, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// readTrack extracts metadata from an audio file. Files with unreadable
// tags still get a library entry derived from the filename, matching what
// the player can do with them: they are playable, just untitled.
func (s *Scanner) readTrack(f fileInfo) media.Track {
	ext := strings.ToLower(filepath.Ext(f.path))

	t := media.Track{
		ID:           media.TrackID(f.path),
		URI:          "file://" + f.path,
		FilePath:     f.path,
		MimeType:     mimeByExt[ext],
		Size:         f.size,
		DateAdded:    time.Now().UnixMilli(),
		DateModified: f.mtime,
	}

	m, err := readTags(f.path)
	if err != nil {
		s.log.Debug("tag read failed, using filename", "path", f.path, "err", err)
		t.Title = strings.TrimSuffix(filepath.Base(f.path), ext)
		t.Artist = unknownArtist
		t.Album = unknownAlbum
	} else {
		t.Title = m.Title()
		if t.Title == "" {
			t.Title = strings.TrimSuffix(filepath.Base(f.path), ext)
		}
		t.Artist = m.Artist()
		if t.Artist == "" {
			t.Artist = unknownArtist
		}
		t.Album = m.Album()
		if t.Album == "" {
			t.Album = unknownAlbum
		}
		t.TrackNumber, _ = m.Track()
		t.Year = m.Year()
	}

	t.ArtistID = media.ArtistID(t.Artist)
	t.AlbumID = media.AlbumID(t.Artist, t.Album)
	return t
}

func readTags(path string) (tag.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tag.ReadFrom(f)
}
