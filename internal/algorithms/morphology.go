// Morphological operations
package algorithms

import (
	"image"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// Dilate grows bright regions with a kernelSize x kernelSize square
// structuring element, repeated iterations times.
func Dilate(input gocv.Mat, kernelSize, iterations int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.WithMessage(core.ErrInvalidImage, "input image is empty")
	}
	if kernelSize < 1 {
		return gocv.NewMat(), errors.WithMessagef(core.ErrInvalidParams, "kernel size must be positive, got %d", kernelSize)
	}
	if iterations < 1 {
		iterations = 1
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	output := gocv.NewMat()
	gocv.Dilate(input, &output, kernel)

	for i := 1; i < iterations; i++ {
		temp := gocv.NewMat()
		gocv.Dilate(output, &temp, kernel)
		output.Close()
		output = temp
	}

	return output, nil
}
