// Package pipeline runs enhancement, binarization and the optional crop as
// one pass over an original image.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"line-art-processing/internal/algorithms"
	"line-art-processing/internal/core"
	imageio "line-art-processing/internal/io"
	"line-art-processing/internal/mask"
	"line-art-processing/internal/metrics"
	"line-art-processing/internal/trace"
)

// Pipeline is stateless between runs and safe for concurrent use.
type Pipeline struct {
	logger    *logrus.Logger
	loader    *imageio.ImageLoader
	tracer    trace.Tracer
	evaluator *metrics.Evaluator
}

type Option func(*Pipeline)

// WithTracer sets the strategy used to export .svg files.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithMetrics enables quality metrics on every run.
func WithMetrics(evaluator *metrics.Evaluator) Option {
	return func(p *Pipeline) {
		p.evaluator = evaluator
	}
}

func New(logger *logrus.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: logger,
		loader: imageio.NewImageLoader(logger),
		tracer: trace.NewContourTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Loader() *imageio.ImageLoader {
	return p.loader
}

// Run recomputes every artifact from original. crop may be nil. Stage
// errors are returned with their kind; a crop that cannot be rasterized
// falls back to an all-keep mask and is reported in Result.MaskErr.
func (p *Pipeline) Run(original gocv.Mat, params Params, crop *Crop) (*Result, error) {
	start := time.Now()
	if err := core.ValidateImage(original); err != nil {
		return nil, err
	}

	result := &Result{
		Enhanced:  gocv.NewMat(),
		Binarized: gocv.NewMat(),
		Cropped:   gocv.NewMat(),
	}
	fail := func(err error) (*Result, error) {
		result.Close()
		p.logger.WithError(err).Error("PIPELINE: Run failed")
		return nil, err
	}

	enhanced, err := algorithms.Enhance(original, params.Enhancement)
	if err != nil {
		return fail(errors.WithMessage(err, "enhancement"))
	}
	result.Enhanced.Close()
	result.Enhanced = enhanced

	bin := params.Binarization
	if params.AutoThreshold && bin.Method == core.MethodThreshold {
		suggested, err := algorithms.SuggestThreshold(enhanced)
		if err != nil {
			return fail(errors.WithMessage(err, "threshold suggestion"))
		}
		bin.Threshold = suggested
		p.logger.WithField("threshold", suggested).Debug("PIPELINE: Automatic threshold")
	}
	result.Threshold = bin.Clamp().Threshold

	binarized, err := algorithms.Binarize(enhanced, bin)
	if err != nil {
		return fail(errors.WithMessage(err, "binarization"))
	}
	result.Binarized.Close()
	result.Binarized = binarized

	if crop != nil {
		outcome, err := p.crop(binarized, crop)
		if err != nil {
			return fail(errors.WithMessage(err, "crop"))
		}
		result.Cropped.Close()
		result.Cropped = outcome.image
		result.MaskErr = outcome.maskErr
		result.MaskCoverage = outcome.coverage
	}

	if p.evaluator != nil {
		result.Metrics = p.measure(original, enhanced, binarized)
		if crop != nil {
			result.Metrics["mask_coverage"] = result.MaskCoverage
		}
	}

	result.Duration = time.Since(start)
	p.logger.WithFields(logrus.Fields{
		"width":         original.Cols(),
		"height":        original.Rows(),
		"method":        bin.Method.String(),
		"cropped":       result.HasCropped(),
		"mask_fallback": result.MaskFallback(),
		"duration":      result.Duration,
	}).Debug("PIPELINE: Run complete")

	return result, nil
}

// stageMetrics pairs each metric key with the stage it compares: tone
// metrics look at original to enhanced, ink at the binarized artifact.
var stageMetrics = []struct {
	key      string
	binarize bool
}{
	{"psnr", false},
	{"contrast_ratio", false},
	{"ink_coverage", true},
}

// measure keeps only finite values so the map can always be logged or
// encoded as JSON. Identical images have an infinite PSNR and are left out.
func (p *Pipeline) measure(original, enhanced, binarized gocv.Mat) map[string]float64 {
	values := map[string]float64{}
	for _, m := range stageMetrics {
		before, after := original, enhanced
		if m.binarize {
			before, after = binarized, binarized
		}
		if v, ok := p.evaluator.Measure(m.key, before, after); ok {
			values[m.key] = v
		}
	}
	return values
}

type cropOutcome struct {
	image    gocv.Mat
	maskErr  error
	coverage float64
}

func (p *Pipeline) crop(binarized gocv.Mat, crop *Crop) (cropOutcome, error) {
	var m gocv.Mat
	outcome := cropOutcome{maskErr: crop.loadErr}
	if outcome.maskErr == nil {
		m, outcome.maskErr = mask.RasterizeOrFull(crop.Shape, binarized.Cols(), binarized.Rows(), crop.Transform.Clamp())
	} else {
		m = mask.Full(binarized.Cols(), binarized.Rows())
	}
	defer m.Close()

	if outcome.maskErr != nil {
		p.logger.WithError(outcome.maskErr).Warn("PIPELINE: Mask generation failed, keeping the whole image")
	}
	outcome.coverage = mask.Coverage(m)

	cropped, err := mask.Composite(binarized, m)
	if err != nil {
		return cropOutcome{}, err
	}
	outcome.image = cropped
	if !crop.Trim || outcome.maskErr != nil {
		return outcome, nil
	}

	trimmed, err := mask.TrimToBounds(cropped, m)
	if err != nil {
		// Nothing kept: the untrimmed all-black artifact stands.
		p.logger.WithError(err).Warn("PIPELINE: Trim skipped")
		return outcome, nil
	}
	cropped.Close()
	outcome.image = trimmed
	return outcome, nil
}

// Export writes the artifact of result to path. A .svg path is traced with
// the configured tracer; any other extension is encoded as a raster.
func (p *Pipeline) Export(ctx context.Context, result *Result, path string) error {
	artifact := result.Artifact()
	if !strings.EqualFold(filepath.Ext(path), ".svg") {
		return p.loader.SaveImage(artifact, path)
	}

	if p.tracer == nil {
		return errors.WithMessage(core.ErrUnsupportedFormat, "no tracer configured for svg output")
	}
	data, err := p.tracer.Trace(ctx, artifact)
	if err != nil {
		return errors.WithMessagef(err, "trace with %s", p.tracer.Name())
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "cannot create output directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "cannot write %s", path)
	}

	p.logger.WithFields(logrus.Fields{
		"filepath": path,
		"tracer":   p.tracer.Name(),
		"bytes":    len(data),
	}).Info("Vector file saved")
	return nil
}
