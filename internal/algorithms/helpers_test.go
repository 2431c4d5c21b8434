package algorithms

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solid(rows, cols int, typ gocv.MatType, v float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, typ)
}

// horizontalRamp is a gray image whose value grows with the column.
func horizontalRamp(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data[r*cols+c] = byte(c * 255 / (cols - 1))
		}
	}
	mat, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC1, data)
	require.NoError(t, err)
	return mat
}

// patterned is a 3-channel image with distinct values per channel.
func patterned(t *testing.T, rows, cols int) gocv.Mat {
	t.Helper()
	data := make([]byte, rows*cols*3)
	for i := 0; i < rows*cols; i++ {
		data[3*i] = byte(i * 7)
		data[3*i+1] = byte(255 - i*3)
		data[3*i+2] = byte(i*i + 11)
	}
	mat, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8UC3, data)
	require.NoError(t, err)
	return mat
}

// verticalSplit is black on the left half and white on the right half.
func verticalSplit(t *testing.T, size int) gocv.Mat {
	t.Helper()
	mat := solid(size, size, gocv.MatTypeCV8UC1, 0)
	right := mat.Region(image.Rect(size/2, 0, size, size))
	right.SetTo(gocv.NewScalar(255, 0, 0, 0))
	right.Close()
	return mat
}

func onlyBinaryValues(t *testing.T, mat gocv.Mat) {
	t.Helper()
	for i, v := range mat.ToBytes() {
		if v != 0 && v != 255 {
			t.Fatalf("sample %d is %d, want 0 or 255", i, v)
		}
	}
}
