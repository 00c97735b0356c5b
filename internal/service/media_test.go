package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveImageStoresFileAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewMediaService(dir)
	require.NoError(t, err)

	name, err := svc.SaveImage(bytes.NewReader(pngBytes(t, 800, 600)), "My Photo.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "my-photo-"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	path, err := svc.Path(name)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "thumbs", name))
	require.NoError(t, err, "thumbnail should exist")
}

func TestSaveImageRejectsUnsupportedType(t *testing.T) {
	svc, err := NewMediaService(t.TempDir())
	require.NoError(t, err)

	_, err = svc.SaveImage(bytes.NewReader([]byte("not an image")), "file.exe")
	assert.Error(t, err)
}

func TestSaveImageRejectsCorruptData(t *testing.T) {
	svc, err := NewMediaService(t.TempDir())
	require.NoError(t, err)

	_, err = svc.SaveImage(bytes.NewReader([]byte("garbage")), "a.png")
	assert.Error(t, err)
}

func TestSaveVideoStoresBytes(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewMediaService(dir)
	require.NoError(t, err)

	name, err := svc.SaveVideo(bytes.NewReader([]byte("fake video data")), "clip.mp4")
	require.NoError(t, err)

	path, err := svc.Path(name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake video data", string(data))
}

func TestPathRejectsTraversal(t *testing.T) {
	svc, err := NewMediaService(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../etc/passwd", "a/b.png"} {
		_, err := svc.Path(name)
		assert.Error(t, err, "name %q should be rejected", name)
	}
}

func TestRemoveDeletesFiles(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewMediaService(dir)
	require.NoError(t, err)

	name, err := svc.SaveImage(bytes.NewReader(pngBytes(t, 10, 10)), "x.png")
	require.NoError(t, err)

	svc.Remove(name)
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "thumbs", name))
	assert.True(t, os.IsNotExist(err))
}

func TestFilenameClassifiers(t *testing.T) {
	assert.True(t, IsImageFilename("a.JPG"))
	assert.True(t, IsImageFilename("b.png"))
	assert.False(t, IsImageFilename("c.mp4"))
	assert.True(t, IsVideoFilename("c.mp4"))
	assert.False(t, IsVideoFilename("d.txt"))
}
