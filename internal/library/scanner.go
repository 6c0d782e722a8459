// Package library indexes audio files from the configured source
// directories into the durable store.
package library

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdelattre/localwave/internal/media"
	"github.com/jdelattre/localwave/internal/store"
)

const (
	numWorkers       = 8
	progressInterval = 100 * time.Millisecond
)

// Progress reports how far a scan has advanced. Updates are throttled so
// consumers are not flooded on large libraries.
type Progress struct {
	Processed int
	Total     int
}

// Scanner walks source directories, extracts metadata and replaces the
// library tables with the result.
type Scanner struct {
	store *store.Store
	log   *slog.Logger
}

func NewScanner(st *store.Store, log *slog.Logger) *Scanner {
	return &Scanner{store: st, log: log}
}

type fileInfo struct {
	path  string
	size  int64
	mtime int64
}

// Scan indexes every audio file under the given sources and replaces the
// library. If progress is non-nil it receives throttled updates and is
// closed when the scan finishes.
func (s *Scanner) Scan(ctx context.Context, sources []string, progress chan<- Progress) error {
	if progress != nil {
		defer close(progress)
	}

	files, err := discoverFiles(ctx, sources)
	if err != nil {
		return err
	}
	s.log.Info("scan discovered files", "count", len(files))

	tracks, err := s.processFiles(ctx, files, progress)
	if err != nil {
		return err
	}

	art := newArtCache()
	for i := range tracks {
		tracks[i].ArtworkPath = art.Lookup(tracks[i].FilePath)
	}

	albums, artists := aggregate(tracks)
	if err := s.store.ReplaceLibrary(tracks, albums, artists); err != nil {
		return err
	}

	s.log.Info("scan complete", "tracks", len(tracks), "albums", len(albums), "artists", len(artists))
	if progress != nil {
		progress <- Progress{Processed: len(files), Total: len(files)}
	}
	return nil
}

// discoverFiles walks the sources collecting audio files. Unreadable
// entries are skipped so one bad directory does not abort the scan.
func discoverFiles(ctx context.Context, sources []string) ([]fileInfo, error) {
	var files []fileInfo
	for _, src := range sources {
		err := filepath.WalkDir(src, func(path string, d os.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			if d.IsDir() || !isAudioFile(path) {
				return nil
			}
			info, infoErr := d.Info()
			if infoErr != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			files = append(files, fileInfo{
				path:  path,
				size:  info.Size(),
				mtime: info.ModTime().UnixMilli(),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// processFiles reads metadata in parallel. Results are collected into a
// deterministic path-sorted slice regardless of worker scheduling.
func (s *Scanner) processFiles(ctx context.Context, files []fileInfo, progress chan<- Progress) ([]media.Track, error) {
	total := len(files)
	var processed atomic.Int64

	workCh := make(chan fileInfo, total)
	resultCh := make(chan media.Track, total)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range workCh {
				if ctx.Err() != nil {
					processed.Add(1)
					continue
				}
				resultCh <- s.readTrack(f)
				processed.Add(1)
			}
		}()
	}

	go func() {
		for _, f := range files {
			workCh <- f
		}
		close(workCh)
	}()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if progress != nil {
					progress <- Progress{Processed: int(processed.Load()), Total: total}
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	tracks := make([]media.Track, 0, total)
	for t := range resultCh {
		tracks = append(tracks, t)
	}
	close(done)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].FilePath < tracks[j].FilePath })
	return tracks, nil
}

// aggregate derives album and artist records from the scanned tracks.
func aggregate(tracks []media.Track) ([]media.Album, []media.Artist) {
	albumsByID := make(map[int64]*media.Album)
	artistsByID := make(map[int64]*media.Artist)
	artistAlbums := make(map[int64]map[int64]bool)

	for _, t := range tracks {
		a, ok := albumsByID[t.AlbumID]
		if !ok {
			a = &media.Album{ID: t.AlbumID, Title: t.Album, Artist: t.Artist, ArtistID: t.ArtistID}
			albumsByID[t.AlbumID] = a
		}
		a.TrackCount++
		if a.Year == 0 && t.Year != 0 {
			a.Year = t.Year
		}
		if a.ArtworkPath == "" && t.ArtworkPath != "" {
			a.ArtworkPath = t.ArtworkPath
		}

		ar, ok := artistsByID[t.ArtistID]
		if !ok {
			ar = &media.Artist{ID: t.ArtistID, Name: t.Artist}
			artistsByID[t.ArtistID] = ar
		}
		ar.TrackCount++

		if artistAlbums[t.ArtistID] == nil {
			artistAlbums[t.ArtistID] = make(map[int64]bool)
		}
		artistAlbums[t.ArtistID][t.AlbumID] = true
	}

	albums := make([]media.Album, 0, len(albumsByID))
	for _, a := range albumsByID {
		albums = append(albums, *a)
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Title < albums[j].Title })

	artists := make([]media.Artist, 0, len(artistsByID))
	for _, ar := range artistsByID {
		ar.AlbumCount = len(artistAlbums[ar.ID])
		artists = append(artists, *ar)
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].Name < artists[j].Name })

	return albums, artists
}
