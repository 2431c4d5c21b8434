// Parameter bundles for the enhancement, binarization and crop stages
package core

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"emperror.dev/errors"
	"github.com/samber/lo"
)

// Method selects how the binarization stage reduces an image to two levels.
type Method int

const (
	// MethodThreshold keeps pixels at or above the threshold (white on black).
	MethodThreshold Method = iota
	// MethodEdgeDetection draws thickened Canny edges as black lines on white.
	MethodEdgeDetection
)

var methodNames = map[Method]string{
	MethodThreshold:     "Threshold",
	MethodEdgeDetection: "Edge Detection",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod accepts the display names plus a few common spellings.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "threshold", "thresh":
		return MethodThreshold, nil
	case "edge detection", "edge_detection", "edge-detection", "edge", "edges", "canny":
		return MethodEdgeDetection, nil
	}
	return MethodThreshold, errors.WithMessagef(ErrInvalidParams, "unknown method %q", s)
}

func (m Method) MarshalText() ([]byte, error) {
	if _, ok := methodNames[m]; !ok {
		return nil, errors.WithMessagef(ErrInvalidParams, "unknown method %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParameterInfo describes the documented range of a numeric parameter.
type ParameterInfo struct {
	Name        string
	Min         float64
	Max         float64
	Default     float64
	Description string
}

// Neutral is the slider value that maps to an enhancement factor of 1.0.
const Neutral = 50

// EnhancementParams drives the tone and sharpness stage. Factors are value/50.
type EnhancementParams struct {
	Brightness int `yaml:"brightness" toml:"brightness"`
	Contrast   int `yaml:"contrast" toml:"contrast"`
	Sharpness  int `yaml:"sharpness" toml:"sharpness"`
	Blur       int `yaml:"blur" toml:"blur"`
}

func DefaultEnhancementParams() EnhancementParams {
	return EnhancementParams{
		Brightness: Neutral,
		Contrast:   Neutral,
		Sharpness:  Neutral,
		Blur:       0,
	}
}

func EnhancementParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{Name: "brightness", Min: 0, Max: 100, Default: Neutral, Description: "Brightness, 50 is unchanged and 100 doubles"},
		{Name: "contrast", Min: 0, Max: 100, Default: Neutral, Description: "Contrast around the mean luminance, 50 is unchanged"},
		{Name: "sharpness", Min: 0, Max: 100, Default: Neutral, Description: "Sharpness against a smoothed copy, 50 is unchanged"},
		{Name: "blur", Min: 0, Max: 20, Default: 0, Description: "Gaussian blur radius, kernel size is 2*blur+1"},
	}
}

// Clamp returns a copy with every field forced into its documented range.
func (p EnhancementParams) Clamp() EnhancementParams {
	return EnhancementParams{
		Brightness: lo.Clamp(p.Brightness, 0, 100),
		Contrast:   lo.Clamp(p.Contrast, 0, 100),
		Sharpness:  lo.Clamp(p.Sharpness, 0, 100),
		Blur:       lo.Clamp(p.Blur, 0, 20),
	}
}

// Validate reports fields outside their range. Stages clamp instead of
// calling it; it exists so callers can warn about clamped input.
func (p EnhancementParams) Validate() error {
	return rangeError(map[string]bool{
		"brightness": p.Brightness < 0 || p.Brightness > 100,
		"contrast":   p.Contrast < 0 || p.Contrast > 100,
		"sharpness":  p.Sharpness < 0 || p.Sharpness > 100,
		"blur":       p.Blur < 0 || p.Blur > 20,
	})
}

func (p EnhancementParams) BrightnessFactor() float64 { return float64(p.Brightness) / Neutral }
func (p EnhancementParams) ContrastFactor() float64   { return float64(p.Contrast) / Neutral }
func (p EnhancementParams) SharpnessFactor() float64  { return float64(p.Sharpness) / Neutral }

// BlurKernelSize is 2*blur+1, or 0 when blurring is disabled.
func (p EnhancementParams) BlurKernelSize() int {
	if p.Blur <= 0 {
		return 0
	}
	return 2*p.Blur + 1
}

// BinarizationParams drives the two-level reduction stage.
type BinarizationParams struct {
	Method          Method `yaml:"method" toml:"method"`
	Threshold       int    `yaml:"threshold" toml:"threshold"`
	EdgeSensitivity int    `yaml:"edge_sensitivity" toml:"edge_sensitivity"`
	LineThickness   int    `yaml:"line_thickness" toml:"line_thickness"`
}

func DefaultBinarizationParams() BinarizationParams {
	return BinarizationParams{
		Method:          MethodThreshold,
		Threshold:       128,
		EdgeSensitivity: 50,
		LineThickness:   1,
	}
}

func BinarizationParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{Name: "threshold", Min: 0, Max: 255, Default: 128, Description: "Luminance cut-off"},
		{Name: "edge_sensitivity", Min: 0, Max: 100, Default: 50, Description: "Canny low threshold, high is twice this"},
		{Name: "line_thickness", Min: 1, Max: 10, Default: 1, Description: "Side of the square dilation kernel"},
	}
}

func (p BinarizationParams) Clamp() BinarizationParams {
	return BinarizationParams{
		Method:          p.Method,
		Threshold:       lo.Clamp(p.Threshold, 0, 255),
		EdgeSensitivity: lo.Clamp(p.EdgeSensitivity, 0, 100),
		LineThickness:   lo.Clamp(p.LineThickness, 1, 10),
	}
}

func (p BinarizationParams) Validate() error {
	if _, ok := methodNames[p.Method]; !ok {
		return errors.WithMessagef(ErrInvalidParams, "unknown method %d", int(p.Method))
	}
	return rangeError(map[string]bool{
		"threshold":        p.Threshold < 0 || p.Threshold > 255,
		"edge_sensitivity": p.EdgeSensitivity < 0 || p.EdgeSensitivity > 100,
		"line_thickness":   p.LineThickness < 1 || p.LineThickness > 10,
	})
}

// CannyThresholds returns the hysteresis pair (sensitivity, 2*sensitivity)
// for the clamped sensitivity.
func (p BinarizationParams) CannyThresholds() (low, high float32) {
	s := lo.Clamp(p.EdgeSensitivity, 0, 100)
	return float32(s), float32(lo.Clamp(2*s, 0, 255))
}

// CropTransform places a vector shape on the canvas: a uniform scale
// multiplier and a pixel offset from the canvas center.
type CropTransform struct {
	Scale   float64 `yaml:"scale" toml:"scale"`
	OffsetX int     `yaml:"offset_x" toml:"offset_x"`
	OffsetY int     `yaml:"offset_y" toml:"offset_y"`
}

const (
	MinCropScale = 0.5
	MaxCropScale = 2.0
)

func DefaultCropTransform() CropTransform {
	return CropTransform{Scale: 1.0}
}

// Clamp keeps the scale within [0.5, 2.0]. A zero or NaN scale means unset
// and becomes 1.0. Offsets are left alone.
func (t CropTransform) Clamp() CropTransform {
	if t.Scale == 0 || math.IsNaN(t.Scale) {
		t.Scale = 1.0
	}
	t.Scale = lo.Clamp(t.Scale, MinCropScale, MaxCropScale)
	return t
}

func rangeError(outOfRange map[string]bool) error {
	names := lo.Filter(lo.Keys(outOfRange), func(name string, _ int) bool {
		return outOfRange[name]
	})
	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)
	return errors.WithMessagef(ErrInvalidParams, "out of range: %s", strings.Join(names, ", "))
}
