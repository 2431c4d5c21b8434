// Package vector reads crop border outlines from the path subset of SVG
// documents and turns them into polygon shapes.
package vector

import (
	"math"

	"emperror.dev/errors"

	"line-art-processing/internal/core"
)

// Shape is an immutable set of polygons expressed in a natural coordinate
// space of Width x Height units with its origin at (0, 0).
type Shape struct {
	subpaths []Subpath
	width    float64
	height   float64
	source   string
}

// NewShape copies subpaths and validates the natural size.
func NewShape(subpaths []Subpath, width, height float64) (*Shape, error) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, errors.WithMessagef(core.ErrMaskGeneration, "invalid natural size %gx%g", width, height)
	}
	return &Shape{subpaths: copySubpaths(subpaths), width: width, height: height}, nil
}

// Subpaths returns a copy of the polygons.
func (s *Shape) Subpaths() []Subpath {
	return copySubpaths(s.subpaths)
}

// NaturalSize is the width and height the points are expressed in.
func (s *Shape) NaturalSize() (width, height float64) {
	return s.width, s.height
}

// Source is the file the shape was loaded from, if any.
func (s *Shape) Source() string {
	return s.source
}

// FillableCount is the number of subpaths with at least three points.
func (s *Shape) FillableCount() int {
	n := 0
	for _, sp := range s.subpaths {
		if len(sp) >= 3 {
			n++
		}
	}
	return n
}

// PointCount is the total number of points over all subpaths.
func (s *Shape) PointCount() int {
	n := 0
	for _, sp := range s.subpaths {
		n += len(sp)
	}
	return n
}

func copySubpaths(in []Subpath) []Subpath {
	out := make([]Subpath, len(in))
	for i, sp := range in {
		out[i] = append(Subpath(nil), sp...)
	}
	return out
}
