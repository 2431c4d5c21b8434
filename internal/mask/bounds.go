package mask

import (
	"image"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// Bounds is the smallest rectangle holding every non-zero mask pixel,
// clamped to the mask. ok is false for an all-Discard mask.
func Bounds(mask gocv.Mat) (rect image.Rectangle, ok bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if !ok {
			rect, ok = r, true
			continue
		}
		rect = rect.Union(r)
	}
	return rect.Intersect(image.Rect(0, 0, mask.Cols(), mask.Rows())), ok && !rect.Empty()
}

// TrimToBounds crops img to the bounding rectangle of mask. The mask is
// fitted to img first so both share a coordinate space.
func TrimToBounds(img, mask gocv.Mat) (gocv.Mat, error) {
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

	rect, ok := Bounds(fitted)
	if !ok {
		return gocv.NewMat(), errors.WithMessage(core.ErrMaskGeneration, "mask keeps no pixels")
	}

	region := img.Region(rect)
	defer region.Close()
	return region.Clone(), nil
}
