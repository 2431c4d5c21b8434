// Otsu threshold suggestion for the threshold method
package algorithms

import (
	"gocv.io/x/gocv"
)

// SuggestThreshold returns the threshold that splits the luminance
// histogram of input into the two classes with the largest between-class
// variance. The value is expressed for an inclusive comparison: pixels at
// or above it turn white. A single-valued image yields 0.
func SuggestThreshold(input gocv.Mat) (int, error) {
	gray, err := ToGray(input)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	level, ok := otsuLevel(histogram(gray))
	if !ok {
		return 0, nil
	}
	return level + 1, nil
}

// histogram returns the normalized 256-bin histogram of a CV8UC1 image.
func histogram(gray gocv.Mat) []float64 {
	data := gray.ToBytes()
	hist := make([]float64, 256)
	for _, v := range data {
		hist[v]++
	}

	total := float64(len(data))
	for i := range hist {
		hist[i] /= total
	}
	return hist
}

// otsuLevel returns the last intensity of the dark class. It reports false
// when every pixel falls into one bin.
func otsuLevel(hist []float64) (int, bool) {
	sum := 0.0
	for i, p := range hist {
		sum += float64(i) * p
	}

	sumB, wB := 0.0, 0.0
	maximum := 0.0
	level, found := 0, false

	for t := range hist {
		wB += hist[t]
		if wB == 0 {
			continue
		}

		wF := 1.0 - wB
		if wF <= 1e-12 {
			break
		}

		sumB += float64(t) * hist[t]
		mB := sumB / wB
		mF := (sum - sumB) / wF

		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maximum {
			level = t
			maximum = between
			found = true
		}
	}

	return level, found
}
