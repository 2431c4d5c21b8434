package core

import "emperror.dev/errors"

// Error kinds shared by every processing stage. Callers test for them with
// errors.Is; stages attach context with errors.WithMessage.
const (
	// ErrInvalidImage reports an empty Mat, non-positive dimensions or an
	// unsupported channel count.
	ErrInvalidImage = errors.Sentinel("invalid image")

	// ErrInvalidParams reports a parameter that cannot be clamped into range,
	// such as an unknown binarization method.
	ErrInvalidParams = errors.Sentinel("invalid parameters")

	// ErrMaskGeneration reports a vector shape that could not be parsed or
	// placed on the canvas. The pipeline absorbs it and falls back to an
	// all-keep mask.
	ErrMaskGeneration = errors.Sentinel("mask generation failed")

	// ErrUnsupportedFormat reports a file whose extension or content is not
	// a supported raster or preset format.
	ErrUnsupportedFormat = errors.Sentinel("unsupported format")
)
