// Package trace converts binary line art into vector files.
package trace

import (
	"context"

	"emperror.dev/errors"
	"gocv.io/x/gocv"
)

const (
	// ErrToolNotFound reports that an external tracing program is missing.
	ErrToolNotFound = errors.Sentinel("tracing tool not found")

	// ErrToolFailed reports an external tracing program exiting non-zero.
	ErrToolFailed = errors.Sentinel("tracing tool failed")

	// ErrNoContours reports a binary image with nothing to trace.
	ErrNoContours = errors.Sentinel("no contours found")
)

// Tracer turns a single-channel {0,255} image into an SVG document.
type Tracer interface {
	Trace(ctx context.Context, binary gocv.Mat) ([]byte, error)
	Name() string
}
