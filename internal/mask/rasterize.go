// Package mask turns vector shapes into pixel masks and applies masks to
// images.
package mask

import (
	"image"
	"image/color"
	"math"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
	"line-art-processing/internal/vector"
)

// Keep and Discard are the two mask values.
const (
	Keep    = 255
	Discard = 0
)

// Placement is the per-axis mapping from natural shape space to canvas
// pixels.
type Placement struct {
	ScaleX, ScaleY float64
	AnchorX        float64
	AnchorY        float64
	NaturalWidth   float64
	NaturalHeight  float64
}

// NewPlacement stretches the shape to canvas*scale on each axis
// independently and centers its natural box on the canvas center moved by
// the offsets.
func NewPlacement(shape *vector.Shape, canvasWidth, canvasHeight int, transform core.CropTransform) (Placement, error) {
	if shape == nil {
		return Placement{}, errors.WithMessage(core.ErrMaskGeneration, "no shape")
	}
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return Placement{}, errors.WithMessagef(core.ErrMaskGeneration, "invalid canvas %dx%d", canvasWidth, canvasHeight)
	}
	if !(transform.Scale > 0) || math.IsInf(transform.Scale, 0) {
		return Placement{}, errors.WithMessagef(core.ErrMaskGeneration, "invalid scale %g", transform.Scale)
	}

	naturalWidth, naturalHeight := shape.NaturalSize()
	return Placement{
		ScaleX:        float64(canvasWidth) * transform.Scale / naturalWidth,
		ScaleY:        float64(canvasHeight) * transform.Scale / naturalHeight,
		AnchorX:       float64(canvasWidth)/2 + float64(transform.OffsetX),
		AnchorY:       float64(canvasHeight)/2 + float64(transform.OffsetY),
		NaturalWidth:  naturalWidth,
		NaturalHeight: naturalHeight,
	}, nil
}

// Apply maps a natural-space point to canvas pixel coordinates.
func (p Placement) Apply(pt vector.Point) (float64, float64) {
	tx := pt.X*p.ScaleX + p.AnchorX - (p.NaturalWidth*p.ScaleX)/2
	ty := pt.Y*p.ScaleY + p.AnchorY - (p.NaturalHeight*p.ScaleY)/2
	return tx, ty
}

// Rasterize fills every subpath of shape, placed by transform, with Keep on
// a canvasWidth x canvasHeight mask of Discard. Each subpath is filled as a
// solid polygon on its own. A shape without any subpath of three or more
// points is an error.
func Rasterize(shape *vector.Shape, canvasWidth, canvasHeight int, transform core.CropTransform) (gocv.Mat, error) {
	placement, err := NewPlacement(shape, canvasWidth, canvasHeight, transform)
	if err != nil {
		return gocv.NewMat(), err
	}

	polygons := make([][]image.Point, 0, len(shape.Subpaths()))
	for _, subpath := range shape.Subpaths() {
		if len(subpath) < 3 {
			continue
		}
		polygon := make([]image.Point, 0, len(subpath))
		for _, pt := range subpath {
			tx, ty := placement.Apply(pt)
			if math.IsNaN(tx) || math.IsNaN(ty) || math.IsInf(tx, 0) || math.IsInf(ty, 0) {
				return gocv.NewMat(), errors.WithMessagef(core.ErrMaskGeneration, "point (%g, %g) does not map to the canvas", pt.X, pt.Y)
			}
			polygon = append(polygon, image.Pt(clampCoord(tx), clampCoord(ty)))
		}
		polygons = append(polygons, polygon)
	}
	if len(polygons) == 0 {
		return gocv.NewMat(), errors.WithMessage(core.ErrMaskGeneration, "shape has no fillable subpath")
	}

	mask := Empty(canvasWidth, canvasHeight)
	white := color.RGBA{R: Keep, G: Keep, B: Keep, A: 255}
	for _, polygon := range polygons {
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{polygon})
		gocv.FillPoly(&mask, pv, white)
		pv.Close()
	}
	return mask, nil
}

// RasterizeOrFull is Rasterize with the fail-open policy: on any error it
// returns an all-Keep mask together with the error that caused the
// fallback. The returned Mat is always usable when the canvas is valid.
func RasterizeOrFull(shape *vector.Shape, canvasWidth, canvasHeight int, transform core.CropTransform) (gocv.Mat, error) {
	mask, err := Rasterize(shape, canvasWidth, canvasHeight, transform)
	if err == nil {
		return mask, nil
	}
	mask.Close()
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return gocv.NewMat(), err
	}
	return Full(canvasWidth, canvasHeight), err
}

// Full returns an all-Keep mask.
func Full(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(Keep, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

// Empty returns an all-Discard mask.
func Empty(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(Discard, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

// clampCoord rounds to the nearest pixel and keeps the value well inside
// the range OpenCV's fixed-point polygon filler accepts.
func clampCoord(v float64) int {
	const limit = 1 << 20
	return int(math.Round(math.Max(-limit, math.Min(limit, v))))
}
