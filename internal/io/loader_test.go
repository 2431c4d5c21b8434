package io

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

func newTestLoader() (*ImageLoader, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewImageLoader(logger), hook
}

func testImage(t *testing.T) gocv.Mat {
	t.Helper()
	data := make([]byte, 7*5*3)
	for i := range data {
		data[i] = byte(i * 13)
	}
	mat, err := gocv.NewMatFromBytes(7, 5, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	return mat
}

func TestRoundTripIsLossless(t *testing.T) {
	loader, hook := newTestLoader()
	src := testImage(t)
	defer src.Close()

	for _, ext := range []string{".png", ".bmp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "image"+ext)
			require.NoError(t, loader.SaveImage(src, path))

			got, err := loader.LoadImage(path)
			require.NoError(t, err)
			defer got.Close()

			assert.Equal(t, src.Rows(), got.Rows())
			assert.Equal(t, src.Cols(), got.Cols())
			assert.True(t, bytes.Equal(src.ToBytes(), got.ToBytes()))
		})
	}

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Image loaded successfully", hook.LastEntry().Message)
}

func TestRoundTripGrayscale(t *testing.T) {
	loader, _ := newTestLoader()
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	defer src.Close()
	src.SetUCharAt(1, 2, 0)

	path := filepath.Join(t.TempDir(), "binary.png")
	require.NoError(t, loader.SaveImage(src, path))

	got, err := loader.load(path, gocv.IMReadGrayScale)
	require.NoError(t, err)
	defer got.Close()
	assert.Equal(t, 1, got.Channels())
	assert.Equal(t, src.ToBytes(), got.ToBytes())
}

func TestUnsupportedExtension(t *testing.T) {
	loader, _ := newTestLoader()
	src := testImage(t)
	defer src.Close()

	err := loader.SaveImage(src, filepath.Join(t.TempDir(), "image.gif"))
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))

	_, err = loader.LoadImage("scan.webp")
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))
}

func TestContentMustMatchImageType(t *testing.T) {
	loader, _ := newTestLoader()
	path := filepath.Join(t.TempDir(), "fake.png")
	require.NoError(t, os.WriteFile(path, []byte("this is not an image"), 0o644))

	_, err := loader.LoadImage(path)
	assert.True(t, errors.Is(err, core.ErrUnsupportedFormat))
}

func TestLoadMissingFile(t *testing.T) {
	loader, _ := newTestLoader()
	_, err := loader.LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

func TestSaveEmptyImage(t *testing.T) {
	loader, _ := newTestLoader()
	empty := gocv.NewMat()
	defer empty.Close()

	err := loader.SaveImage(empty, filepath.Join(t.TempDir(), "x.png"))
	assert.True(t, errors.Is(err, core.ErrInvalidImage))
}

func TestIsSupportedImageFormat(t *testing.T) {
	assert.True(t, IsSupportedImageFormat("a/B.JPEG"))
	assert.True(t, IsSupportedImageFormat("scan.tif"))
	assert.False(t, IsSupportedImageFormat("shape.svg"))
	assert.False(t, IsSupportedImageFormat("noext"))
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	assert.Contains(t, exts, "png")
	assert.Contains(t, exts, "tif")
	for _, ext := range exts {
		assert.True(t, IsSupportedImageFormat("scan."+ext), ext)
	}
}
