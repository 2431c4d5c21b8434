// Image validation and the session image holder
package core

import (
	"path/filepath"
	"strings"
	"sync"

	"emperror.dev/errors"
	"gocv.io/x/gocv"
)

// MaxDimension bounds either side of an accepted image.
const MaxDimension = 16384

// ValidateImage checks the invariants every stage relies on: a non-empty
// 8-bit Mat with positive dimensions and 1, 3 or 4 channels.
func ValidateImage(mat gocv.Mat) error {
	if mat.Empty() {
		return errors.WithMessage(ErrInvalidImage, "image is empty")
	}

	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return errors.WithMessagef(ErrInvalidImage, "invalid dimensions: %dx%d", mat.Cols(), mat.Rows())
	}

	if mat.Cols() > MaxDimension || mat.Rows() > MaxDimension {
		return errors.WithMessagef(ErrInvalidImage, "image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), MaxDimension)
	}

	switch mat.Channels() {
	case 1, 3, 4:
	default:
		return errors.WithMessagef(ErrInvalidImage, "unsupported channel count: %d", mat.Channels())
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
	default:
		return errors.WithMessagef(ErrInvalidImage, "unsupported sample type: %v", mat.Type())
	}

	return nil
}

// ValidateMask checks that mat is a usable single-channel mask.
func ValidateMask(mat gocv.Mat) error {
	if err := ValidateImage(mat); err != nil {
		return err
	}
	if mat.Channels() != 1 {
		return errors.WithMessagef(ErrInvalidImage, "mask must have 1 channel, got %d", mat.Channels())
	}
	return nil
}

// ImageMetadata describes the loaded original.
type ImageMetadata struct {
	Width    int
	Height   int
	Channels int
	Format   string
}

// ImageData holds the original image of a session and the last artifact
// produced from it. Mats are cloned on the way in and on the way out so no
// caller ever shares pixel memory with the holder.
type ImageData struct {
	mu        sync.RWMutex
	original  gocv.Mat
	processed gocv.Mat
	hasImage  bool
	filepath  string
	metadata  ImageMetadata
}

func NewImageData() *ImageData {
	return &ImageData{
		original:  gocv.NewMat(),
		processed: gocv.NewMat(),
	}
}

// SetOriginal replaces the original and drops any previous artifact.
func (img *ImageData) SetOriginal(mat gocv.Mat, path string) error {
	if err := ValidateImage(mat); err != nil {
		return err
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	img.original.Close()
	img.processed.Close()

	img.original = mat.Clone()
	img.processed = gocv.NewMat()
	img.hasImage = true
	img.filepath = path
	img.metadata = ImageMetadata{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: mat.Channels(),
		Format:   FormatFromPath(path),
	}

	return nil
}

// SetProcessed stores a copy of the latest artifact. The original is never
// touched, so a failed run cannot corrupt it.
func (img *ImageData) SetProcessed(mat gocv.Mat) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	if !img.hasImage {
		return errors.WithMessage(ErrInvalidImage, "no original image loaded")
	}
	if mat.Empty() {
		return errors.WithMessage(ErrInvalidImage, "cannot store empty artifact")
	}

	img.processed.Close()
	img.processed = mat.Clone()
	return nil
}

// Original returns a copy of the original, or an empty Mat.
func (img *ImageData) Original() gocv.Mat {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if !img.hasImage {
		return gocv.NewMat()
	}
	return img.original.Clone()
}

// Processed returns a copy of the last artifact, or an empty Mat.
func (img *ImageData) Processed() gocv.Mat {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if img.processed.Empty() {
		return gocv.NewMat()
	}
	return img.processed.Clone()
}

func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.hasImage
}

func (img *ImageData) Metadata() ImageMetadata {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.metadata
}

func (img *ImageData) Filepath() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.filepath
}

// Close releases both Mats. The holder can be reused after SetOriginal.
func (img *ImageData) Close() {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.original.Close()
	img.processed.Close()
	img.original = gocv.NewMat()
	img.processed = gocv.NewMat()
	img.hasImage = false
	img.filepath = ""
	img.metadata = ImageMetadata{}
}

// FormatFromPath returns the lower-case extension without the dot.
func FormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
