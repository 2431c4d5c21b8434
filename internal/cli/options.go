package cli

import (
	"os"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/cobra"

	"line-art-processing/internal/config"
	"line-art-processing/internal/core"
	"line-art-processing/internal/metrics"
	"line-art-processing/internal/pipeline"
	"line-art-processing/internal/trace"
)

// paramFlags are the processing flags shared by process, batch and watch.
// A flag overrides the preset only when it is set on the command line.
type paramFlags struct {
	brightness int
	contrast   int
	sharpness  int
	blur       int

	method        string
	threshold     int
	edgeSens      int
	lineThickness int
	autoThreshold bool

	shape    string
	shapeDir string
	parse    string
	scale    float64
	offsetX  int
	offsetY  int
	trim     bool
	noCrop   bool

	tracer  string
	metrics bool
}

func (f *paramFlags) register(cmd *cobra.Command) {
	d := config.DefaultConfig()
	fl := cmd.Flags()

	fl.IntVar(&f.brightness, "brightness", d.Enhancement.Brightness, "Brightness 0-100, 50 is unchanged")
	fl.IntVar(&f.contrast, "contrast", d.Enhancement.Contrast, "Contrast 0-100, 50 is unchanged")
	fl.IntVar(&f.sharpness, "sharpness", d.Enhancement.Sharpness, "Sharpness 0-100, 50 is unchanged")
	fl.IntVar(&f.blur, "blur", d.Enhancement.Blur, "Gaussian blur radius 0-20")

	fl.StringVarP(&f.method, "method", "m", d.Binarization.Method.String(), `Binarization method: "threshold" or "edge"`)
	fl.IntVarP(&f.threshold, "threshold", "t", d.Binarization.Threshold, "Luminance threshold 0-255")
	fl.BoolVar(&f.autoThreshold, "auto-threshold", false, "Pick the threshold from the image histogram (Otsu)")
	fl.IntVar(&f.edgeSens, "edge-sensitivity", d.Binarization.EdgeSensitivity, "Edge sensitivity 0-100")
	fl.IntVar(&f.lineThickness, "line-thickness", d.Binarization.LineThickness, "Edge line thickness 1-10")

	fl.StringVar(&f.shape, "shape", "", "Crop border SVG, a path or a name in the shape directory")
	fl.StringVar(&f.shapeDir, "shape-dir", d.Crop.ShapeDir, "Directory holding crop border shapes")
	fl.StringVar(&f.parse, "parse", d.Crop.Parse, `Path parsing: "flatten" or "raw"`)
	fl.Float64Var(&f.scale, "scale", d.Crop.Transform.Scale, "Crop shape scale 0.5-2.0")
	fl.IntVar(&f.offsetX, "offset-x", 0, "Crop shape horizontal offset in pixels")
	fl.IntVar(&f.offsetY, "offset-y", 0, "Crop shape vertical offset in pixels")
	fl.BoolVar(&f.trim, "trim", false, "Trim the cropped image to the shape bounds")
	fl.BoolVar(&f.noCrop, "no-crop", false, "Ignore any crop shape in the preset")

	fl.StringVar(&f.tracer, "tracer", d.Tracer.Kind, `SVG tracer: "contour" or "exec"`)
	fl.BoolVar(&f.metrics, "metrics", false, "Log quality metrics for every run")
}

// apply copies every flag set on the command line into cfg.
func (f *paramFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	setInt := func(name string, dst *int, v int) {
		if changed(name) {
			*dst = v
		}
	}

	setInt("brightness", &cfg.Enhancement.Brightness, f.brightness)
	setInt("contrast", &cfg.Enhancement.Contrast, f.contrast)
	setInt("sharpness", &cfg.Enhancement.Sharpness, f.sharpness)
	setInt("blur", &cfg.Enhancement.Blur, f.blur)

	if changed("method") {
		method, err := core.ParseMethod(f.method)
		if err != nil {
			return err
		}
		cfg.Binarization.Method = method
	}
	setInt("threshold", &cfg.Binarization.Threshold, f.threshold)
	if changed("auto-threshold") {
		cfg.AutoThreshold = f.autoThreshold
	}
	setInt("edge-sensitivity", &cfg.Binarization.EdgeSensitivity, f.edgeSens)
	setInt("line-thickness", &cfg.Binarization.LineThickness, f.lineThickness)

	if changed("shape") {
		cfg.Crop.Shape = f.shape
	}
	if changed("shape-dir") {
		cfg.Crop.ShapeDir = f.shapeDir
	}
	if changed("parse") {
		cfg.Crop.Parse = f.parse
	}
	if changed("scale") {
		cfg.Crop.Transform.Scale = f.scale
	}
	setInt("offset-x", &cfg.Crop.Transform.OffsetX, f.offsetX)
	setInt("offset-y", &cfg.Crop.Transform.OffsetY, f.offsetY)
	if changed("trim") {
		cfg.Crop.Trim = f.trim
	}
	if f.noCrop {
		cfg.Crop.Shape = ""
	}

	if changed("tracer") {
		cfg.Tracer.Kind = f.tracer
	}
	return nil
}

// loadConfig reads the preset named by --preset, or lineart.yaml in the
// working directory when present, applies flag overrides and clamps.
func loadConfig(cmd *cobra.Command, f *paramFlags) (*config.Config, error) {
	path := presetPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPresetFile); err == nil {
			path = config.DefaultPresetFile
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loader, err := config.NewLoaderWithPath(path)
		if err != nil {
			return nil, err
		}
		if cfg, err = loader.Load(); err != nil {
			return nil, err
		}
		logger.WithField("preset", path).Debug("Preset loaded")
	}

	if f != nil {
		if err := f.apply(cmd, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		if _, perr := cfg.Crop.ParseMode(); perr != nil {
			return nil, perr
		}
		logger.WithError(err).Warn("Parameters out of range were clamped")
	}
	cfg.Clamp()
	return cfg, nil
}

func newPipeline(cfg *config.Config, withMetrics bool) (*pipeline.Pipeline, error) {
	tracer, err := newTracer(cfg.Tracer)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithTracer(tracer)}
	if withMetrics {
		opts = append(opts, pipeline.WithMetrics(metrics.NewEvaluator()))
	}
	return pipeline.New(logger, opts...), nil
}

func newTracer(tc config.TracerConfig) (trace.Tracer, error) {
	switch strings.ToLower(tc.Kind) {
	case "", config.TracerContour:
		return trace.NewContourTracer(), nil
	case config.TracerExec:
		return trace.NewExecTracer(logger, tc.Tool, tc.Args...), nil
	default:
		return nil, errors.WithMessagef(core.ErrInvalidParams, "unknown tracer kind %q", tc.Kind)
	}
}

// newCrop builds the crop of cfg, or nil when no shape is configured. A
// shape that fails to load is kept as a fail-open crop.
func newCrop(cfg *config.Config) (*pipeline.Crop, error) {
	if cfg.Crop.Shape == "" {
		return nil, nil
	}
	mode, err := cfg.Crop.ParseMode()
	if err != nil {
		return nil, err
	}

	path := resolveShape(cfg.Crop.Shape, cfg.Crop.ShapeDir)
	crop := pipeline.NewCropFromFile(path, mode, cfg.Crop.Transform)
	crop.Trim = cfg.Crop.Trim
	if err := crop.LoadErr(); err != nil {
		logger.WithError(err).WithField("shape", path).Warn("Crop shape unusable, image will not be cropped")
	}
	return crop, nil
}

// resolveShape looks a bare name up in the shape directory, adding .svg
// when missing.
func resolveShape(shape, dir string) string {
	if _, err := os.Stat(shape); err == nil || dir == "" || strings.ContainsRune(shape, filepath.Separator) {
		return shape
	}
	name := shape
	if !strings.EqualFold(filepath.Ext(name), ".svg") {
		name += ".svg"
	}
	return filepath.Join(dir, name)
}

func paramsOf(cfg *config.Config) pipeline.Params {
	return pipeline.Params{
		Enhancement:   cfg.Enhancement,
		Binarization:  cfg.Binarization,
		AutoThreshold: cfg.AutoThreshold,
	}
}
