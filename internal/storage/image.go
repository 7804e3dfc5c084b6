// Package storage persists uploaded post images and derives serving URLs.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MasterMaxSize caps the stored image's longest edge.
	MasterMaxSize = 2048
	// ThumbnailSize is the longest edge of the derived webp thumbnail.
	ThumbnailSize = 256

	jpegQuality = 82
	webpQuality = 70
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size limit.
	ErrTooLarge = errors.New("image exceeds maximum upload size")
	// ErrUnsupportedFormat is returned for content that does not decode as an image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// ImageStore writes post images into a disk-backed bucket directory,
// content-addressed by sha256. Every stored image gets a size-capped jpeg
// master and a webp thumbnail.
type ImageStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewImageStore creates the bucket directory if needed. baseURL is the public
// prefix under which the directory is served.
func NewImageStore(dir, baseURL string, maxSizeMB int) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &ImageStore{
		dir:      dir,
		baseURL:  baseURL,
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
	}, nil
}

// Dir returns the bucket directory, for static file serving.
func (s *ImageStore) Dir() string { return s.dir }

// Save validates and persists an uploaded image, returning its public URL.
// Re-uploading identical content is idempotent (same hash, same files).
func (s *ImageStore) Save(content []byte) (string, error) {
	if int64(len(content)) > s.maxBytes {
		return "", ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", ErrUnsupportedFormat
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	master := scaleDown(img, MasterMaxSize)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, master, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encoding master image: %w", err)
	}
	name := hash + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing master image: %w", err)
	}

	thumb := scaleDown(img, ThumbnailSize)
	buf.Reset()
	if err := webp.Encode(&buf, thumb, &webp.Options{Quality: webpQuality}); err != nil {
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, hash+"_thumb.webp"), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing thumbnail: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// scaleDown shrinks img so its longest edge is at most maxSize, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func scaleDown(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	longest := w
	if h > w {
		longest = h
	}
	scale := float64(maxSize) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
