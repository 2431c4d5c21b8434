package pipeline

import (
	"time"

	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
	"line-art-processing/internal/vector"
)

// Params bundles the stage parameters of one run.
type Params struct {
	Enhancement  core.EnhancementParams
	Binarization core.BinarizationParams

	// AutoThreshold replaces Binarization.Threshold with the Otsu level of
	// the enhanced image.
	AutoThreshold bool
}

func DefaultParams() Params {
	return Params{
		Enhancement:  core.DefaultEnhancementParams(),
		Binarization: core.DefaultBinarizationParams(),
	}
}

// Crop asks a run to mask its binarized artifact with a shape.
type Crop struct {
	Shape     *vector.Shape
	Transform core.CropTransform
	// Trim cuts the cropped artifact down to the bounding box of the mask.
	Trim bool

	loadErr error
}

// NewCropFromFile loads the shape at path. A shape that fails to load is
// not an error here: the run falls back to an all-keep mask and reports
// the load error in Result.MaskErr.
func NewCropFromFile(path string, mode vector.ParseMode, transform core.CropTransform) *Crop {
	shape, err := vector.LoadShape(path, mode)
	return &Crop{Shape: shape, Transform: transform, loadErr: err}
}

// LoadErr is the error raised while loading the shape, if any.
func (c *Crop) LoadErr() error {
	return c.loadErr
}

// Result holds the artifacts of one run. The caller owns the Mats and must
// Close the Result.
type Result struct {
	Enhanced  gocv.Mat
	Binarized gocv.Mat
	Cropped   gocv.Mat

	// Threshold is the threshold the run binarized with.
	Threshold int

	// MaskErr is set when the crop fell back to an all-keep mask.
	MaskErr      error
	MaskCoverage float64
	Metrics      map[string]float64
	Duration     time.Duration
}

func (r *Result) HasCropped() bool {
	return !r.Cropped.Empty()
}

// MaskFallback reports whether the crop used the fail-open mask.
func (r *Result) MaskFallback() bool {
	return r.MaskErr != nil
}

// Artifact is what a run saves: the cropped image when present, the
// binarized one otherwise.
func (r *Result) Artifact() gocv.Mat {
	if r.HasCropped() {
		return r.Cropped
	}
	return r.Binarized
}

func (r *Result) Close() {
	r.Enhanced.Close()
	r.Binarized.Close()
	r.Cropped.Close()
}
