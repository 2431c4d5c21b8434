// Package config holds processing presets and reads them from YAML or TOML
// files.
package config

import (
	"strings"

	"emperror.dev/errors"

	"line-art-processing/internal/core"
	"line-art-processing/internal/vector"
)

const (
	TracerContour = "contour"
	TracerExec    = "exec"
)

// Config is a processing preset.
type Config struct {
	Enhancement  core.EnhancementParams  `yaml:"enhancement" toml:"enhancement"`
	Binarization core.BinarizationParams `yaml:"binarization" toml:"binarization"`
	Crop         CropConfig              `yaml:"crop" toml:"crop"`
	Tracer       TracerConfig            `yaml:"tracer" toml:"tracer"`

	// AutoThreshold picks the threshold from the image histogram.
	AutoThreshold bool `yaml:"auto_threshold" toml:"auto_threshold"`
}

// CropConfig selects the crop border. An empty Shape disables cropping.
type CropConfig struct {
	Shape     string             `yaml:"shape" toml:"shape"`
	ShapeDir  string             `yaml:"shape_dir" toml:"shape_dir"`
	Parse     string             `yaml:"parse" toml:"parse"`
	Trim      bool               `yaml:"trim" toml:"trim"`
	Transform core.CropTransform `yaml:"transform" toml:"transform"`
}

// TracerConfig selects how .svg output is produced.
type TracerConfig struct {
	Kind string   `yaml:"kind" toml:"kind"`
	Tool string   `yaml:"tool,omitempty" toml:"tool,omitempty"`
	Args []string `yaml:"args,omitempty" toml:"args,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Enhancement:  core.DefaultEnhancementParams(),
		Binarization: core.DefaultBinarizationParams(),
		Crop: CropConfig{
			ShapeDir:  vector.DefaultLibraryDir,
			Parse:     vector.ModeFlatten.String(),
			Transform: core.DefaultCropTransform(),
		},
		Tracer: TracerConfig{
			Kind: TracerContour,
		},
	}
}

// Clamp forces every numeric parameter into range.
func (c *Config) Clamp() {
	c.Enhancement = c.Enhancement.Clamp()
	c.Binarization = c.Binarization.Clamp()
	c.Crop.Transform = c.Crop.Transform.Clamp()
}

// Validate reports values that cannot be clamped, and values that are out
// of range, so callers can warn before clamping.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Enhancement.Validate(); err != nil {
		errs = append(errs, errors.WithMessage(err, "enhancement"))
	}
	if err := c.Binarization.Validate(); err != nil {
		errs = append(errs, errors.WithMessage(err, "binarization"))
	}
	if _, err := c.Crop.ParseMode(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Tracer.Kind) {
	case "", TracerContour, TracerExec:
	default:
		errs = append(errs, errors.WithMessagef(core.ErrInvalidParams, "unknown tracer kind %q", c.Tracer.Kind))
	}
	return errors.Combine(errs...)
}

// ParseMode maps the parse setting to a vector.ParseMode. Empty means
// flatten.
func (c CropConfig) ParseMode() (vector.ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Parse)) {
	case "", vector.ModeFlatten.String():
		return vector.ModeFlatten, nil
	case vector.ModeRaw.String():
		return vector.ModeRaw, nil
	default:
		return vector.ModeFlatten, errors.WithMessagef(core.ErrInvalidParams, "unknown parse mode %q", c.Parse)
	}
}
