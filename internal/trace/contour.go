package trace

import (
	"bytes"
	"context"
	"fmt"

	"emperror.dev/errors"
	"gocv.io/x/gocv"

	"line-art-processing/internal/algorithms"
)

// ContourTracer traces pixel contours in process and emits one closed
// polyline path per contour.
type ContourTracer struct {
	// Paper traces the white regions instead of the black ink.
	Paper bool
}

func NewContourTracer() *ContourTracer {
	return &ContourTracer{}
}

func (c *ContourTracer) Name() string {
	return "contour"
}

func (c *ContourTracer) Trace(ctx context.Context, binary gocv.Mat) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray, err := algorithms.ToGray(binary)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	// FindContours follows non-zero pixels.
	foreground := gocv.NewMat()
	defer foreground.Close()
	if c.Paper {
		gocv.Threshold(gray, &foreground, 127, 255, gocv.ThresholdBinary)
	} else {
		gocv.Threshold(gray, &foreground, 127, 255, gocv.ThresholdBinaryInv)
	}

	contours := gocv.FindContours(foreground, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		gray.Cols(), gray.Rows(), gray.Cols(), gray.Rows())

	paths := 0
	for _, contour := range contours.ToPoints() {
		if len(contour) < 2 {
			continue
		}
		buf.WriteString(`  <path fill="none" stroke="black" d="M`)
		for i, pt := range contour {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%d,%d", pt.X, pt.Y)
		}
		buf.WriteString(" Z\"/>\n")
		paths++
	}
	buf.WriteString("</svg>\n")

	if paths == 0 {
		return nil, errors.WithStack(ErrNoContours)
	}
	return buf.Bytes(), nil
}
