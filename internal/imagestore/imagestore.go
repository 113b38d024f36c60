// Package imagestore persists face crops on the local filesystem.
// Files are write-once: saves go through a temp file and rename, and
// nothing in the engine ever overwrites or deletes a stored crop.
package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Storage categories, each a subdirectory of the store root.
const (
	KindAttendance = "attendance"
	KindUnknown    = "unknown"
	KindStats      = "stats"
)

// Store writes face crops and thumbnails below a root directory.
type Store struct {
	root      string
	thumbSize int
}

// New creates a store rooted at dir. Category subdirectories are created
// eagerly so a misconfigured path fails at startup, not mid-request.
func New(dir string, thumbSize int) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if thumbSize <= 0 {
		thumbSize = 320
	}
	for _, kind := range []string{KindAttendance, KindUnknown, KindStats} {
		if err := os.MkdirAll(filepath.Join(dir, kind), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	return &Store{root: dir, thumbSize: thumbSize}, nil
}

// Save stores image data under the given category and returns the path
// relative to the store root. The name combines the capture time and a
// random suffix so concurrent saves never collide.
func (s *Store) Save(kind string, capturedAt time.Time, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.jpg",
		capturedAt.UTC().Format("20060102T150405"),
		strings.Split(uuid.NewString(), "-")[0],
	)
	rel := filepath.Join(kind, name)
	if err := s.write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// SaveWithThumb stores the full crop plus a downscaled thumbnail and
// returns both relative paths.
func (s *Store) SaveWithThumb(kind string, capturedAt time.Time, data []byte) (facePath, thumbPath string, err error) {
	facePath, err = s.Save(kind, capturedAt, data)
	if err != nil {
		return "", "", err
	}

	thumb, err := Resize(data, s.thumbSize)
	if err != nil {
		return "", "", fmt.Errorf("generate thumbnail: %w", err)
	}
	thumbPath = thumbName(facePath)
	if err := s.write(thumbPath, thumb); err != nil {
		return "", "", err
	}
	return facePath, thumbPath, nil
}

// Open returns the full filesystem path for a stored relative path. The
// relative path must not escape the store root.
func (s *Store) Open(rel string) (string, error) {
	full := filepath.Join(s.root, filepath.Clean("/"+rel))
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("stored image %q: %w", rel, err)
	}
	return full, nil
}

func (s *Store) write(rel string, data []byte) error {
	full := filepath.Join(s.root, rel)

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}

func thumbName(facePath string) string {
	ext := filepath.Ext(facePath)
	return strings.TrimSuffix(facePath, ext) + "_thumb" + ext
}

// Resize scales an image to fit within maxSize on its longer edge while
// keeping aspect ratio, re-encoding as JPEG.
func Resize(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxSize && height <= maxSize {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
		return buf.Bytes(), nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = int(float64(height) * float64(maxSize) / float64(width))
	} else {
		newHeight = maxSize
		newWidth = int(float64(width) * float64(maxSize) / float64(height))
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
