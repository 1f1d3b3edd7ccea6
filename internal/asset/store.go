package asset

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/partyplanner/studio/backend-go/internal/typeid"
)

var ErrNotFound = errors.New("asset not found")

// Store keeps uploaded bitmaps as PNG files on disk and caches decoded
// images for the compositor.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string]image.Image
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Store{dir: dir, cache: make(map[string]image.Image)}, nil
}

// Dir returns the directory files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save encodes img as PNG under a new asset id.
func (s *Store) Save(img image.Image) (string, error) {
	assetID := typeid.NewAssetID()
	path := s.path(assetID)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create asset file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close asset file: %w", err)
	}

	s.mu.Lock()
	s.cache[assetID] = img
	s.mu.Unlock()
	return assetID, nil
}

// Load returns the decoded bitmap for assetID.
func (s *Store) Load(assetID string) (image.Image, error) {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	s.mu.RLock()
	img, ok := s.cache[assetID]
	s.mu.RUnlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(s.path(assetID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	img, err = png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", assetID, err)
	}

	s.mu.Lock()
	s.cache[assetID] = img
	s.mu.Unlock()
	return img, nil
}

// Bitmap resolves an asset id for the compositor.
func (s *Store) Bitmap(assetID string) (image.Image, bool) {
	img, err := s.Load(assetID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("load asset", "asset", assetID, "error", err)
		}
		return nil, false
	}
	return img, true
}

func (s *Store) path(assetID string) string {
	return filepath.Join(s.dir, assetID+".png")
}
