// Threshold and edge-detection binarizers
package algorithms

import (
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// ThresholdBinarizer maps luminance >= threshold to 255 and the rest to 0.
type ThresholdBinarizer struct{}

func NewThresholdBinarizer() *ThresholdBinarizer {
	return &ThresholdBinarizer{}
}

func (t *ThresholdBinarizer) Binarize(input gocv.Mat, params core.BinarizationParams) (gocv.Mat, error) {
	gray, err := ToGray(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	// THRESH_BINARY keeps samples strictly above its cut-off; on integer
	// samples "> t-1" is ">= t".
	output := gocv.NewMat()
	gocv.Threshold(gray, &output, float32(params.Threshold)-1, 255, gocv.ThresholdBinary)
	return output, nil
}

func (t *ThresholdBinarizer) GetName() string {
	return "Threshold"
}

func (t *ThresholdBinarizer) GetDescription() string {
	return "Direct binary threshold: bright areas white, dark areas black"
}

// EdgeBinarizer draws Canny edges, thickens them by dilation and inverts the
// result so lines are black on a white background.
type EdgeBinarizer struct{}

func NewEdgeBinarizer() *EdgeBinarizer {
	return &EdgeBinarizer{}
}

func (e *EdgeBinarizer) Binarize(input gocv.Mat, params core.BinarizationParams) (gocv.Mat, error) {
	gray, err := ToGray(input)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	low, high := params.CannyThresholds()
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, low, high)

	thick, err := Dilate(edges, params.LineThickness, 1)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer thick.Close()

	// Inverted on purpose: edges become 0, background 255.
	output := gocv.NewMat()
	gocv.Threshold(thick, &output, float32(params.Threshold), 255, gocv.ThresholdBinaryInv)
	return output, nil
}

func (e *EdgeBinarizer) GetName() string {
	return "Edge Detection"
}

func (e *EdgeBinarizer) GetDescription() string {
	return "Canny edges dilated to the line thickness, drawn black on white"
}
