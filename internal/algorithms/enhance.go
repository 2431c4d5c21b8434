// Tone and sharpness enhancement stage
package algorithms

import (
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

type toneStep func(input gocv.Mat) (gocv.Mat, error)

// Enhance applies brightness, contrast and sharpness in that order on the
// RGB representation, converts back to storage order and finally blurs when
// params.Blur > 0. The input is never modified. A 4-channel input comes back
// as 3-channel BGR.
func Enhance(input gocv.Mat, params core.EnhancementParams) (gocv.Mat, error) {
	if err := core.ValidateImage(input); err != nil {
		return gocv.NewMat(), err
	}
	params = params.Clamp()

	steps := []toneStep{
		adjustBrightness(params.BrightnessFactor()),
		adjustContrast(params.ContrastFactor()),
		adjustSharpness(params.SharpnessFactor()),
	}

	current := toWorkingColor(input)
	for _, step := range steps {
		next, err := step(current)
		current.Close()
		if err != nil {
			return gocv.NewMat(), err
		}
		current = next
	}

	storage := toStorageColor(current)
	current.Close()

	kernelSize := params.BlurKernelSize()
	if kernelSize == 0 {
		return storage, nil
	}

	blurred, err := GaussianBlur(storage, kernelSize)
	storage.Close()
	if err != nil {
		return gocv.NewMat(), err
	}
	return blurred, nil
}

// adjustBrightness scales every sample by factor, saturating at 0 and 255.
func adjustBrightness(factor float64) toneStep {
	return func(input gocv.Mat) (gocv.Mat, error) {
		if factor == 1 {
			return input.Clone(), nil
		}
		output := gocv.NewMat()
		input.ConvertToWithParams(&output, input.Type(), float32(factor), 0)
		return output, nil
	}
}

// adjustContrast moves every sample away from (factor > 1) or towards
// (factor < 1) the mean luminance: out = mean + factor*(in - mean).
func adjustContrast(factor float64) toneStep {
	return func(input gocv.Mat) (gocv.Mat, error) {
		if factor == 1 {
			return input.Clone(), nil
		}
		mean := meanLuminance(input)
		output := gocv.NewMat()
		input.ConvertToWithParams(&output, input.Type(), float32(factor), float32((1-factor)*mean))
		return output, nil
	}
}

// adjustSharpness blends the image with its smoothed copy:
// out = factor*in + (1-factor)*smooth. Factors above 1 sharpen.
func adjustSharpness(factor float64) toneStep {
	return func(input gocv.Mat) (gocv.Mat, error) {
		if factor == 1 {
			return input.Clone(), nil
		}
		smooth, err := Smooth(input)
		if err != nil {
			return gocv.NewMat(), err
		}
		defer smooth.Close()

		output := gocv.NewMat()
		gocv.AddWeighted(input, factor, smooth, 1-factor, 0, &output)
		return output, nil
	}
}
