package mask

import (
	"bytes"
	"image"
	"math"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
	"line-art-processing/internal/vector"
)

func square(t *testing.T) *vector.Shape {
	t.Helper()
	shape, err := vector.ParseSVGString(`<svg viewBox="0 0 100 100"><path d="M0 0 L100 0 L100 100 L0 100 Z"/></svg>`, vector.ModeFlatten)
	require.NoError(t, err)
	return shape
}

func TestPlacementCentersShape(t *testing.T) {
	p, err := NewPlacement(square(t), 200, 100, core.CropTransform{Scale: 0.5})
	require.NoError(t, err)

	x, y := p.Apply(vector.Point{X: 0, Y: 0})
	assert.Equal(t, 50.0, x)
	assert.Equal(t, 25.0, y)
	x, y = p.Apply(vector.Point{X: 100, Y: 100})
	assert.Equal(t, 150.0, x)
	assert.Equal(t, 75.0, y)

	p, err = NewPlacement(square(t), 200, 100, core.CropTransform{Scale: 0.5, OffsetX: 10, OffsetY: -5})
	require.NoError(t, err)
	x, y = p.Apply(vector.Point{X: 0, Y: 0})
	assert.Equal(t, 60.0, x)
	assert.Equal(t, 20.0, y)
}

func TestPlacementRejects(t *testing.T) {
	_, err := NewPlacement(nil, 10, 10, core.DefaultCropTransform())
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))
	_, err = NewPlacement(square(t), 0, 10, core.DefaultCropTransform())
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))
	_, err = NewPlacement(square(t), 10, 10, core.CropTransform{Scale: 0})
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))
	_, err = NewPlacement(square(t), 10, 10, core.CropTransform{Scale: math.NaN()})
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))
}

func TestRasterizeFillsPlacedShape(t *testing.T) {
	mask, err := Rasterize(square(t), 40, 40, core.CropTransform{Scale: 0.5})
	require.NoError(t, err)
	defer mask.Close()

	assert.Equal(t, gocv.MatTypeCV8UC1, mask.Type())
	assert.Equal(t, uint8(Keep), mask.GetUCharAt(20, 20))
	assert.Equal(t, uint8(Keep), mask.GetUCharAt(11, 11))
	assert.Equal(t, uint8(Discard), mask.GetUCharAt(2, 2))
	assert.Equal(t, uint8(Discard), mask.GetUCharAt(37, 37))

	coverage := Coverage(mask)
	assert.InDelta(t, 0.25, coverage, 0.06)
}

func TestRasterizeOnlyTwoValues(t *testing.T) {
	shape, err := vector.ParseSVGString(`<svg viewBox="0 0 10 10"><path d="M5 0 A5 5 0 1 1 5 10 A5 5 0 1 1 5 0 Z"/></svg>`, vector.ModeFlatten)
	require.NoError(t, err)

	mask, err := Rasterize(shape, 33, 21, core.DefaultCropTransform())
	require.NoError(t, err)
	defer mask.Close()

	for _, v := range mask.ToBytes() {
		require.True(t, v == Keep || v == Discard)
	}
}

func TestRasterizeDegenerateShape(t *testing.T) {
	line, err := vector.ParseSVGString(`<svg viewBox="0 0 10 10"><path d="M0 0 L10 10"/></svg>`, vector.ModeFlatten)
	require.NoError(t, err)

	_, err = Rasterize(line, 20, 20, core.DefaultCropTransform())
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))

	mask, err := RasterizeOrFull(line, 20, 20, core.DefaultCropTransform())
	require.Error(t, err)
	defer mask.Close()
	assert.Equal(t, 20*20, gocv.CountNonZero(mask))
	assert.Equal(t, 1.0, Coverage(mask))
}

func TestRasterizeOrFullNilShape(t *testing.T) {
	mask, err := RasterizeOrFull(nil, 8, 6, core.DefaultCropTransform())
	require.Error(t, err)
	defer mask.Close()
	assert.Equal(t, 8, mask.Cols())
	assert.Equal(t, 6, mask.Rows())
	assert.Equal(t, 48, gocv.CountNonZero(mask))
}

func TestRasterizeShapeOffCanvas(t *testing.T) {
	mask, err := Rasterize(square(t), 20, 20, core.CropTransform{Scale: 0.5, OffsetX: 500})
	require.NoError(t, err)
	defer mask.Close()
	assert.Equal(t, 0, gocv.CountNonZero(mask))
}

func TestCompositeIdentityAndZero(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 12, 16, gocv.MatTypeCV8UC3)
	defer img.Close()

	full := Full(16, 12)
	defer full.Close()
	same, err := Composite(img, full)
	require.NoError(t, err)
	defer same.Close()
	assert.True(t, bytes.Equal(img.ToBytes(), same.ToBytes()))

	empty := Empty(16, 12)
	defer empty.Close()
	black, err := Composite(img, empty)
	require.NoError(t, err)
	defer black.Close()
	assert.Equal(t, img.Type(), black.Type())
	for _, v := range black.ToBytes() {
		require.Equal(t, uint8(0), v)
	}
}

func TestCompositeOnlyKeepValuePasses(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 0, 0, 0), 2, 2, gocv.MatTypeCV8UC1)
	defer img.Close()
	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(254, 0, 0, 0), 2, 2, gocv.MatTypeCV8UC1)
	defer mask.Close()
	mask.SetUCharAt(0, 0, Keep)

	out, err := Composite(img, mask)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, []byte{200, 0, 0, 0}, out.ToBytes())
}

func TestCompositeResizesMask(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()

	mask := Empty(10, 10)
	defer mask.Close()
	left := mask.Region(image.Rect(0, 0, 5, 10))
	left.SetTo(gocv.NewScalar(Keep, 0, 0, 0))
	left.Close()

	out, err := Composite(img, mask)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, 20, out.Cols())
	assert.Equal(t, uint8(255), out.GetUCharAt(10, 2))
	assert.Equal(t, uint8(0), out.GetUCharAt(10, 17))
	assert.Equal(t, 200, gocv.CountNonZero(out))
}

func TestCompositeValidates(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()
	mask := Full(2, 2)
	defer mask.Close()

	_, err := Composite(img, mask)
	assert.True(t, errors.Is(err, core.ErrInvalidImage))

	color := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	defer color.Close()
	_, err = Composite(color, color)
	assert.True(t, errors.Is(err, core.ErrInvalidImage))
}

func TestTrimToBounds(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 30, 40, gocv.MatTypeCV8UC1)
	defer img.Close()

	mask := Empty(40, 30)
	defer mask.Close()
	box := mask.Region(image.Rect(5, 8, 15, 20))
	box.SetTo(gocv.NewScalar(Keep, 0, 0, 0))
	box.Close()

	rect, ok := Bounds(mask)
	require.True(t, ok)
	assert.Equal(t, image.Rect(5, 8, 15, 20), rect)

	trimmed, err := TrimToBounds(img, mask)
	require.NoError(t, err)
	defer trimmed.Close()
	assert.Equal(t, 10, trimmed.Cols())
	assert.Equal(t, 12, trimmed.Rows())

	none := Empty(40, 30)
	defer none.Close()
	_, ok = Bounds(none)
	assert.False(t, ok)
	_, err = TrimToBounds(img, none)
	assert.True(t, errors.Is(err, core.ErrMaskGeneration))
}
