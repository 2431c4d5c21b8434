// Image loading and saving
package io

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"emperror.dev/errors"
	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

var supportedExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}

// Content types accepted on load, keyed by what mimetype reports.
var supportedMIME = []string{"image/jpeg", "image/png", "image/tiff", "image/bmp"}

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// LoadImage decodes a colour image. The file must have a supported
// extension and its content must sniff as a supported raster type.
func (il *ImageLoader) LoadImage(path string) (gocv.Mat, error) {
	return il.load(path, gocv.IMReadColor)
}

func (il *ImageLoader) load(path string, flags gocv.IMReadFlag) (gocv.Mat, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if err := il.ValidateImageFile(path); err != nil {
		return gocv.NewMat(), err
	}

	mat := gocv.IMRead(path, flags)
	if mat.Empty() {
		mat.Close()
		return gocv.NewMat(), errors.WithMessagef(core.ErrInvalidImage, "failed to decode image: %s", path)
	}
	if err := core.ValidateImage(mat); err != nil {
		mat.Close()
		return gocv.NewMat(), errors.WithMessage(err, path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image loaded successfully")

	return mat, nil
}

// SaveImage encodes mat in the format named by the extension of path.
func (il *ImageLoader) SaveImage(mat gocv.Mat, path string) error {
	il.logger.WithField("filepath", path).Debug("Saving image")

	if err := core.ValidateImage(mat); err != nil {
		return errors.WithMessage(err, "cannot save image")
	}

	if !IsSupportedImageFormat(path) {
		return errors.WithMessagef(core.ErrUnsupportedFormat, "cannot save %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "cannot create output directory %s", dir)
		}
	}

	if ok := gocv.IMWrite(path, mat); !ok {
		return errors.Errorf("failed to save image: %s", path)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    mat.Cols(),
		"height":   mat.Rows(),
		"channels": mat.Channels(),
	}).Info("Image saved successfully")

	return nil
}

// ValidateImageFile checks extension and content type without decoding.
func (il *ImageLoader) ValidateImageFile(path string) error {
	if !IsSupportedImageFormat(path) {
		return errors.WithMessagef(core.ErrUnsupportedFormat, "unsupported image extension: %s", path)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", path)
	}
	if !slices.ContainsFunc(supportedMIME, mtype.Is) {
		return errors.WithMessagef(core.ErrUnsupportedFormat, "%s has content type %s", path, mtype.String())
	}
	return nil
}

// SupportedExtensions lists the raster extensions, without the dot, that
// the loader reads and writes.
func SupportedExtensions() []string {
	return lo.Map(supportedExtensions, func(ext string, _ int) string {
		return strings.TrimPrefix(ext, ".")
	})
}

// IsSupportedImageFormat reports whether the extension of path names a
// raster format the loader reads and writes.
func IsSupportedImageFormat(path string) bool {
	return slices.Contains(supportedExtensions, strings.ToLower(filepath.Ext(path)))
}
