// Quality metrics reported alongside each pipeline run
package metrics

import (
	"math"
	"sort"

	"emperror.dev/errors"
	"gocv.io/x/gocv"
)

// Metric compares a stage input with its output.
type Metric interface {
	Calculate(before, after gocv.Mat) (float64, error)

	GetName() string
	GetDescription() string
	// GetRange bounds the values Calculate returns for valid input.
	GetRange() (float64, float64)
	IsHigherBetter() bool
}

// Evaluator is a named set of metrics.
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator returns an evaluator holding the default metrics.
func NewEvaluator() *Evaluator {
	e := &Evaluator{metrics: map[string]Metric{}}
	e.RegisterDefaultMetrics()
	return e
}

func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("psnr", NewPSNR())
	e.Register("ink_coverage", NewInkCoverage())
	e.Register("contrast_ratio", NewContrastRatio())
}

// Register adds metric under key, replacing any metric with that key.
func (e *Evaluator) Register(key string, metric Metric) {
	e.metrics[key] = metric
}

// Names lists the registered keys in sorted order.
func (e *Evaluator) Names() []string {
	keys := make([]string, 0, len(e.metrics))
	for key := range e.metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *Evaluator) Calculate(key string, before, after gocv.Mat) (float64, error) {
	metric, ok := e.metrics[key]
	if !ok {
		return 0, errors.Errorf("metric not found: %s", key)
	}
	return metric.Calculate(before, after)
}

// Measure calculates the metric under key and reports whether it produced
// a finite value. Unknown keys and failing metrics report false.
func (e *Evaluator) Measure(key string, before, after gocv.Mat) (float64, bool) {
	v, err := e.Calculate(key, before, after)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CalculateAll runs every registered metric. Metrics that fail or have no
// finite value are left out.
func (e *Evaluator) CalculateAll(before, after gocv.Mat) map[string]float64 {
	values := map[string]float64{}
	for key := range e.metrics {
		if v, ok := e.Measure(key, before, after); ok {
			values[key] = v
		}
	}
	return values
}

// Info describes a registered metric for listings.
type Info struct {
	Key          string
	Name         string
	Description  string
	Min, Max     float64
	HigherBetter bool
}

// Describe returns the Info of every registered metric, sorted by key.
func (e *Evaluator) Describe() []Info {
	infos := make([]Info, 0, len(e.metrics))
	for _, key := range e.Names() {
		metric := e.metrics[key]
		lo, hi := metric.GetRange()
		infos = append(infos, Info{
			Key:          key,
			Name:         metric.GetName(),
			Description:  metric.GetDescription(),
			Min:          lo,
			Max:          hi,
			HigherBetter: metric.IsHigherBetter(),
		})
	}
	return infos
}
