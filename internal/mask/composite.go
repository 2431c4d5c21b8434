package mask

import (
	"image"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// Composite keeps img where mask is Keep and zeroes every channel
// elsewhere. A mask of a different size is resized to img with nearest
// neighbour sampling first. Mask values other than Keep discard.
func Composite(img, mask gocv.Mat) (gocv.Mat, error) {
	if err := core.ValidateImage(img); err != nil {
		return gocv.NewMat(), err
	}
	if err := core.ValidateMask(mask); err != nil {
		return gocv.NewMat(), errors.WithMessage(err, "mask")
	}

	fitted, err := fitMask(mask, img.Cols(), img.Rows())
	if err != nil {
		return gocv.NewMat(), err
	}
	defer fitted.Close()

	output := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), img.Rows(), img.Cols(), img.Type())
	img.CopyToWithMask(&output, fitted)
	return output, nil
}

// fitMask returns a binary copy of mask sized width x height in which only
// former Keep pixels are non-zero.
func fitMask(mask gocv.Mat, width, height int) (gocv.Mat, error) {
	source := mask
	if mask.Cols() != width || mask.Rows() != height {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(mask, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor); err != nil {
			return gocv.NewMat(), errors.WithMessagef(core.ErrMaskGeneration, "resize mask: %v", err)
		}
		source = resized
	}

	binary := gocv.NewMat()
	gocv.Threshold(source, &binary, Keep-1, Keep, gocv.ThresholdBinary)
	return binary, nil
}

// Coverage is the fraction of Keep pixels in mask.
func Coverage(mask gocv.Mat) float64 {
	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	kept := 0
	for _, v := range mask.ToBytes() {
		if v == Keep {
			kept++
		}
	}
	return float64(kept) / float64(total)
}
