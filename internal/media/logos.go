package media

import (
	"image"
	"os"
	"path/filepath"
	"sync"
)

// Logos loads <dir>/<label>.png once per label. Missing files are
// remembered as nil so the caller can fall back to text.
type Logos struct {
	dir   string
	mu    sync.Mutex
	cache map[string]image.Image
}

func NewLogos(dir string) *Logos {
	return &Logos{dir: dir, cache: make(map[string]image.Image)}
}

// Get returns the logo for label or nil.
func (l *Logos) Get(label string) image.Image {
	if l == nil || l.dir == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.cache[label]; ok {
		return img
	}
	img := l.load(label)
	l.cache[label] = img
	return img
}

func (l *Logos) load(label string) image.Image {
	if filepath.Base(label) != label {
		return nil
	}
	f, err := os.Open(filepath.Join(l.dir, label+".png"))
	if err != nil {
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}
