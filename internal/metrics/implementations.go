// Concrete implementations of quality metrics
package metrics

import (
	"math"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/algorithms"
	"line-art-processing/internal/core"
)

// PSNR implements Peak Signal-to-Noise Ratio metric over luminance.
type PSNR struct{}

func NewPSNR() *PSNR {
	return &PSNR{}
}

func (p *PSNR) Calculate(before, after gocv.Mat) (float64, error) {
	a, b, err := grayPair(before, after)
	if err != nil {
		return 0, err
	}

	mse := meanSquaredError(a, b)
	if mse == 0 {
		return math.Inf(1), nil // Perfect match
	}
	return 20 * math.Log10(255/math.Sqrt(mse)), nil
}

func (p *PSNR) GetName() string { return "PSNR" }

func (p *PSNR) GetDescription() string {
	return "Peak signal-to-noise ratio between input and output luminance in dB"
}

func (p *PSNR) GetRange() (float64, float64) { return 0, 100 }

func (p *PSNR) IsHigherBetter() bool { return true }

// InkCoverage is the fraction of black pixels in the output. The input is
// ignored.
type InkCoverage struct{}

func NewInkCoverage() *InkCoverage {
	return &InkCoverage{}
}

func (c *InkCoverage) Calculate(_, after gocv.Mat) (float64, error) {
	gray, err := algorithms.ToGray(after)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	black := 0
	pixels := gray.ToBytes()
	for _, v := range pixels {
		if v == 0 {
			black++
		}
	}
	return float64(black) / float64(len(pixels)), nil
}

func (c *InkCoverage) GetName() string { return "Ink Coverage" }

func (c *InkCoverage) GetDescription() string {
	return "Fraction of output pixels that are pure black"
}

func (c *InkCoverage) GetRange() (float64, float64) { return 0, 1 }

func (c *InkCoverage) IsHigherBetter() bool { return false }

// ContrastRatio compares the luminance standard deviation of the output to
// that of the input.
type ContrastRatio struct{}

func NewContrastRatio() *ContrastRatio {
	return &ContrastRatio{}
}

func (c *ContrastRatio) Calculate(before, after gocv.Mat) (float64, error) {
	a, b, err := grayPair(before, after)
	if err != nil {
		return 0, err
	}

	sdBefore := stdDev(a)
	if sdBefore == 0 {
		return 0, errors.WithMessage(core.ErrInvalidImage, "input has no contrast")
	}
	return stdDev(b) / sdBefore, nil
}

func (c *ContrastRatio) GetName() string { return "Contrast Ratio" }

func (c *ContrastRatio) GetDescription() string {
	return "Output luminance spread relative to the input"
}

func (c *ContrastRatio) GetRange() (float64, float64) { return 0, 10 }

func (c *ContrastRatio) IsHigherBetter() bool { return true }

// grayPair returns the luminance bytes of two images of equal size.
func grayPair(before, after gocv.Mat) ([]byte, []byte, error) {
	if before.Rows() != after.Rows() || before.Cols() != after.Cols() {
		return nil, nil, errors.WithMessagef(core.ErrInvalidImage, "image dimensions mismatch: %dx%d vs %dx%d",
			before.Cols(), before.Rows(), after.Cols(), after.Rows())
	}

	grayBefore, err := algorithms.ToGray(before)
	if err != nil {
		return nil, nil, err
	}
	defer grayBefore.Close()

	grayAfter, err := algorithms.ToGray(after)
	if err != nil {
		return nil, nil, err
	}
	defer grayAfter.Close()

	return grayBefore.ToBytes(), grayAfter.ToBytes(), nil
}

func meanSquaredError(a, b []byte) float64 {
	sum := 0.0
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum / float64(len(a))
}

func stdDev(values []byte) float64 {
	mean := 0.0
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
