package core

import (
	"math"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"Threshold", MethodThreshold},
		{"threshold", MethodThreshold},
		{"Edge Detection", MethodEdgeDetection},
		{"edge", MethodEdgeDetection},
		{" canny ", MethodEdgeDetection},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMethod("otsu")
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestMethodText(t *testing.T) {
	text, err := MethodEdgeDetection.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Edge Detection", string(text))

	var m Method
	require.NoError(t, m.UnmarshalText([]byte("edge_detection")))
	assert.Equal(t, MethodEdgeDetection, m)

	_, err = Method(42).MarshalText()
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestEnhancementParamsClamp(t *testing.T) {
	p := EnhancementParams{Brightness: -5, Contrast: 150, Sharpness: 50, Blur: 99}
	require.Error(t, p.Validate())

	c := p.Clamp()
	assert.Equal(t, EnhancementParams{Brightness: 0, Contrast: 100, Sharpness: 50, Blur: 20}, c)
	assert.NoError(t, c.Validate())
}

func TestEnhancementValidateNamesFields(t *testing.T) {
	err := EnhancementParams{Brightness: 101, Contrast: 50, Sharpness: -1}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParams))
	assert.Contains(t, err.Error(), "brightness, sharpness")
}

func TestEnhancementFactors(t *testing.T) {
	p := DefaultEnhancementParams()
	assert.Equal(t, 1.0, p.BrightnessFactor())
	assert.Equal(t, 1.0, p.ContrastFactor())
	assert.Equal(t, 1.0, p.SharpnessFactor())
	assert.Equal(t, 0, p.BlurKernelSize())

	p.Brightness = 100
	p.Blur = 3
	assert.Equal(t, 2.0, p.BrightnessFactor())
	assert.Equal(t, 7, p.BlurKernelSize())
}

func TestBinarizationParams(t *testing.T) {
	d := DefaultBinarizationParams()
	assert.Equal(t, MethodThreshold, d.Method)
	assert.Equal(t, 128, d.Threshold)
	assert.Equal(t, 50, d.EdgeSensitivity)
	assert.Equal(t, 1, d.LineThickness)

	c := BinarizationParams{Method: MethodEdgeDetection, Threshold: 300, EdgeSensitivity: -3, LineThickness: 0}.Clamp()
	assert.Equal(t, 255, c.Threshold)
	assert.Equal(t, 0, c.EdgeSensitivity)
	assert.Equal(t, 1, c.LineThickness)

	assert.True(t, errors.Is(BinarizationParams{Method: Method(9), LineThickness: 1}.Validate(), ErrInvalidParams))
}

func TestCannyThresholds(t *testing.T) {
	low, high := BinarizationParams{EdgeSensitivity: 50}.CannyThresholds()
	assert.Equal(t, float32(50), low)
	assert.Equal(t, float32(100), high)

	low, high = BinarizationParams{EdgeSensitivity: 250}.CannyThresholds()
	assert.Equal(t, float32(100), low)
	assert.Equal(t, float32(200), high)
}

func TestCropTransformClamp(t *testing.T) {
	assert.Equal(t, 1.0, CropTransform{}.Clamp().Scale)
	assert.Equal(t, 1.0, CropTransform{Scale: math.NaN()}.Clamp().Scale)
	assert.Equal(t, MinCropScale, CropTransform{Scale: 0.1}.Clamp().Scale)
	assert.Equal(t, MaxCropScale, CropTransform{Scale: 5}.Clamp().Scale)

	c := CropTransform{Scale: 1.5, OffsetX: -500, OffsetY: 700}.Clamp()
	assert.Equal(t, -500, c.OffsetX)
	assert.Equal(t, 700, c.OffsetY)
}
