package library

import (
	"os"
	"path/filepath"
)

var (
	artStems = []string{"cover", "folder", "album", "front"}
	artExts  = []string{".jpg", ".png", ".jpeg"}
)

// artCache memoizes per-directory sidecar art lookups so a scan stats
// each directory once instead of once per track.
type artCache struct {
	byDir map[string]string
}

func newArtCache() *artCache {
	return &artCache{byDir: make(map[string]string)}
}

// Lookup returns the sidecar album art path for the track's directory,
// or empty when none exists. Stems are checked in priority order, so
// cover.jpg beats folder.jpg.
func (c *artCache) Lookup(trackPath string) string {
	dir := filepath.Dir(trackPath)
	if art, ok := c.byDir[dir]; ok {
		return art
	}

	var found string
	for _, stem := range artStems {
		for _, ext := range artExts {
			candidate := filepath.Join(dir, stem+ext)
			if _, err := os.Stat(candidate); err == nil {
				found = candidate
				break
			}
		}
		if found != "" {
			break
		}
	}
	c.byDir[dir] = found
	return found
}
