package trace

import (
	"context"
	"image"
	"os/exec"
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"line-art-processing/internal/vector"
)

// inkSquare is white paper with a filled black square.
func inkSquare() gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 40, 60, gocv.MatTypeCV8UC1)
	ink := mat.Region(image.Rect(10, 10, 30, 25))
	ink.SetTo(gocv.NewScalar(0, 0, 0, 0))
	ink.Close()
	return mat
}

func TestContourTracerOutputParses(t *testing.T) {
	img := inkSquare()
	defer img.Close()

	data, err := NewContourTracer().Trace(context.Background(), img)
	require.NoError(t, err)
	assert.Contains(t, string(data), `viewBox="0 0 60 40"`)
	assert.Equal(t, 1, strings.Count(string(data), "<path"))

	shape, err := vector.ParseSVGString(string(data), vector.ModeFlatten)
	require.NoError(t, err)
	w, h := shape.NaturalSize()
	assert.Equal(t, 60.0, w)
	assert.Equal(t, 40.0, h)
	require.Equal(t, 1, shape.FillableCount())

	for _, pt := range shape.Subpaths()[0] {
		assert.True(t, pt.X >= 10 && pt.X <= 29, "x %v", pt.X)
		assert.True(t, pt.Y >= 10 && pt.Y <= 24, "y %v", pt.Y)
	}
}

func TestContourTracerPaper(t *testing.T) {
	img := inkSquare()
	defer img.Close()

	data, err := (&ContourTracer{Paper: true}).Trace(context.Background(), img)
	require.NoError(t, err)
	// Outer paper boundary plus the hole left by the ink.
	assert.Equal(t, 2, strings.Count(string(data), "<path"))
}

func TestContourTracerNothingToTrace(t *testing.T) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 10, 10, gocv.MatTypeCV8UC1)
	defer blank.Close()

	_, err := NewContourTracer().Trace(context.Background(), blank)
	assert.True(t, errors.Is(err, ErrNoContours))
}

func TestContourTracerCancelled(t *testing.T) {
	img := inkSquare()
	defer img.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewContourTracer().Trace(ctx, img)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecTracerToolNotFound(t *testing.T) {
	logger, _ := test.NewNullLogger()
	img := inkSquare()
	defer img.Close()

	tracer := NewExecTracer(logger, "definitely-not-a-tracer-binary")
	_, err := tracer.Trace(context.Background(), img)
	assert.True(t, errors.Is(err, ErrToolNotFound))
}

func TestExecTracerToolFailed(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	logger, _ := test.NewNullLogger()
	img := inkSquare()
	defer img.Close()

	_, err := NewExecTracer(logger, "false").Trace(context.Background(), img)
	assert.True(t, errors.Is(err, ErrToolFailed))
}

func TestExecTracerSubstitutesPaths(t *testing.T) {
	if _, err := exec.LookPath("cp"); err != nil {
		t.Skip("cp not available")
	}
	logger, _ := test.NewNullLogger()
	img := inkSquare()
	defer img.Close()

	tracer := NewExecTracer(logger, "cp", "{input}", "{output}")
	assert.Equal(t, "cp", tracer.Name())

	data, err := tracer.Trace(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "BM"), "expected the BMP handed to the tool")
}

func TestNewExecTracerDefaults(t *testing.T) {
	logger, _ := test.NewNullLogger()
	tracer := NewExecTracer(logger, "")
	assert.Equal(t, DefaultTool, tracer.Tool)
	assert.Equal(t, DefaultArgs, tracer.Args)
}
