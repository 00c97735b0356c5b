package service

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"

	"goblog/internal/util"
)

// Upload limits and thumbnail geometry.
const (
	MaxImageSize   = 10 << 20 // 10MB
	MaxVideoSize   = 100 << 20
	ThumbnailWidth = 400
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".ogg": true,
}

// MediaService stores uploaded files under the uploads directory.
// Images are re-encoded (normalizing EXIF orientation) and get a thumbnail;
// videos are stored as-is.
type MediaService struct {
	uploadsDir string
}

// NewMediaService creates the uploads directory tree if needed.
func NewMediaService(uploadsDir string) (*MediaService, error) {
	for _, dir := range []string{uploadsDir, filepath.Join(uploadsDir, "thumbs")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating uploads directory %s: %w", dir, err)
		}
	}
	return &MediaService{uploadsDir: uploadsDir}, nil
}

// storedName builds a collision-free filename that still carries the
// original name, which the download handler exposes to the client.
func storedName(originalName string) (string, string) {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := util.Slugify(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)))
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s-%s%s", base, uuid.NewString()[:8], ext), ext
}

// IsImageFilename reports whether the filename has a supported image extension.
func IsImageFilename(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsVideoFilename reports whether the filename has a supported video extension.
func IsVideoFilename(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// SaveImage stores an uploaded image. The image is decoded, rotated
// according to its EXIF orientation, re-encoded, and a thumbnail written
// alongside it. Returns the stored filename.
func (s *MediaService) SaveImage(r io.Reader, originalName string) (string, error) {
	name, ext := storedName(originalName)
	if !imageExtensions[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readOrientation(data))

	// imaging.Save picks the encoder from the file extension.
	if err := imaging.Save(img, filepath.Join(s.uploadsDir, name), imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}

	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(s.uploadsDir, "thumbs", name)); err != nil {
		return "", fmt.Errorf("saving thumbnail: %w", err)
	}

	return name, nil
}

// SaveVideo stores an uploaded video without processing. Returns the
// stored filename.
func (s *MediaService) SaveVideo(r io.Reader, originalName string) (string, error) {
	name, ext := storedName(originalName)
	if !videoExtensions[ext] {
		return "", fmt.Errorf("unsupported video type %q", ext)
	}

	f, err := os.Create(filepath.Join(s.uploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("creating video file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxVideoSize+1))
	if err != nil {
		return "", fmt.Errorf("writing video: %w", err)
	}
	if n > MaxVideoSize {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("video exceeds %d bytes", MaxVideoSize)
	}

	return name, nil
}

// Path resolves a stored filename to an absolute path, rejecting names
// that escape the uploads directory.
func (s *MediaService) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid stored filename %q", name)
	}
	return filepath.Join(s.uploadsDir, name), nil
}

// Remove deletes a stored file and its thumbnail, ignoring missing files.
func (s *MediaService) Remove(name string) {
	if name == "" || name != filepath.Base(name) {
		return
	}
	_ = os.Remove(filepath.Join(s.uploadsDir, name))
	_ = os.Remove(filepath.Join(s.uploadsDir, "thumbs", name))
}

// readOrientation extracts the EXIF orientation tag, defaulting to 1
// (upright) when absent or unreadable.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orient, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orient
}

// applyOrientation normalizes an image according to its EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
