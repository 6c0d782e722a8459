package beep

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gobeep "github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// uriToPath strips the file scheme from a track URI.
func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func decode(path string) (*os.File, gobeep.StreamSeekCloser, gobeep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, gobeep.Format{}, err
	}

	var streamer gobeep.StreamSeekCloser
	var format gobeep.Format

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		// Some taggers prepend ID3v2 tags that the FLAC decoder chokes on.
		if err = skipID3v2(f); err == nil {
			streamer, format, err = flac.Decode(f)
		}
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	default:
		err = fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		f.Close()
		return nil, nil, gobeep.Format{}, err
	}
	return f, streamer, format, nil
}

// skipID3v2 skips an ID3v2 tag if one is prepended to the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := r.Read(header)
	if err != nil {
		return err
	}
	if n < 10 || string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// Syncsafe integer in bytes 6-9, 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
