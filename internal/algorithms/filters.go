// Smoothing filters and color conversions shared by the stages
package algorithms

import (
	"image"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// GaussianBlur smooths input with a square kernel of the given odd size.
// Sigma is derived from the kernel size.
func GaussianBlur(input gocv.Mat, kernelSize int) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.WithMessage(core.ErrInvalidImage, "input image is empty")
	}

	if kernelSize < 3 {
		kernelSize = 3
	}
	// Ensure kernel size is odd
	if kernelSize%2 == 0 {
		kernelSize++
	}

	output := gocv.NewMat()
	gocv.GaussianBlur(input, &output, image.Pt(kernelSize, kernelSize), 0, 0, gocv.BorderDefault)
	return output, nil
}

// smoothKernel is the 3x3 weighting used as the "blurred copy" reference for
// sharpness: center weight 5, neighbours 1, normalised by 13.
func smoothKernel() gocv.Mat {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			weight := float32(1)
			if row == 1 && col == 1 {
				weight = 5
			}
			kernel.SetFloatAt(row, col, weight/13)
		}
	}
	return kernel
}

// Smooth applies the sharpness reference kernel to the interior. The outer
// one-pixel ring has no full neighbourhood and is copied from input, so
// sharpness never changes it.
func Smooth(input gocv.Mat) (gocv.Mat, error) {
	if input.Empty() {
		return gocv.NewMat(), errors.WithMessage(core.ErrInvalidImage, "input image is empty")
	}

	kernel := smoothKernel()
	defer kernel.Close()

	output := gocv.NewMat()
	if err := gocv.Filter2D(input, &output, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderReplicate); err != nil {
		output.Close()
		return gocv.NewMat(), errors.Wrap(err, "smoothing filter failed")
	}
	copyBorder(input, output)
	return output, nil
}

// copyBorder copies the outer one-pixel ring of src into dst. Both must
// have the same size and type.
func copyBorder(src, dst gocv.Mat) {
	w, h := src.Cols(), src.Rows()
	ring := []image.Rectangle{
		image.Rect(0, 0, w, 1),
		image.Rect(0, h-1, w, h),
		image.Rect(0, 0, 1, h),
		image.Rect(w-1, 0, w, h),
	}
	for _, rect := range ring {
		from := src.Region(rect)
		to := dst.Region(rect)
		from.CopyTo(&to)
		from.Close()
		to.Close()
	}
}

// ToGray converts a 1, 3 or 4 channel BGR(A) image to single-channel
// luminance. Single-channel input is cloned.
func ToGray(input gocv.Mat) (gocv.Mat, error) {
	if err := core.ValidateImage(input); err != nil {
		return gocv.NewMat(), err
	}

	gray := gocv.NewMat()
	switch input.Channels() {
	case 1:
		input.CopyTo(&gray)
	case 3:
		gocv.CvtColor(input, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(input, &gray, gocv.ColorBGRAToGray)
	}
	return gray, nil
}

// toWorkingColor converts storage order to the order tone adjustments run in:
// BGR and BGRA become RGB, gray stays gray.
func toWorkingColor(input gocv.Mat) gocv.Mat {
	working := gocv.NewMat()
	switch input.Channels() {
	case 3:
		gocv.CvtColor(input, &working, gocv.ColorBGRToRGB)
	case 4:
		gocv.CvtColor(input, &working, gocv.ColorBGRAToRGB)
	default:
		input.CopyTo(&working)
	}
	return working
}

// toStorageColor undoes toWorkingColor. Alpha is not restored.
func toStorageColor(working gocv.Mat) gocv.Mat {
	storage := gocv.NewMat()
	if working.Channels() == 3 {
		gocv.CvtColor(working, &storage, gocv.ColorRGBToBGR)
	} else {
		working.CopyTo(&storage)
	}
	return storage
}

// meanLuminance returns the mean gray level of a working-color image, rounded
// to the nearest integer.
func meanLuminance(working gocv.Mat) float64 {
	if working.Channels() == 1 {
		return roundHalfUp(working.Mean().Val1)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(working, &gray, gocv.ColorRGBToGray)
	return roundHalfUp(gray.Mean().Val1)
}

func roundHalfUp(v float64) float64 {
	return float64(int(v + 0.5))
}
