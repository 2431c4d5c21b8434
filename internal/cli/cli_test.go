package cli

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"line-art-processing/internal/config"
	"line-art-processing/internal/core"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		presetPath = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDrawing(t *testing.T, path string) {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(230, 230, 230, 0), 40, 50, gocv.MatTypeCV8UC3)
	defer mat.Close()
	ink := mat.Region(image.Rect(10, 10, 30, 20))
	ink.SetTo(gocv.NewScalar(10, 10, 10, 0))
	ink.Close()
	require.True(t, gocv.IMWrite(path, mat))
}

func TestSetVersion(t *testing.T) {
	old := version
	defer func() { version = old }()

	SetVersion("1.2.3")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lineart 1.2.3")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
	}
	for _, want := range []string{"process", "batch", "shapes", "watch", "preset", "params", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestParamFlagsOverrideOnlyWhenSet(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var f paramFlags
	f.register(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--threshold", "90", "--method", "edge", "--scale", "1.5", "--no-crop"}))

	cfg := config.DefaultConfig()
	cfg.Enhancement.Contrast = 70
	cfg.Crop.Shape = "oval"
	require.NoError(t, f.apply(cmd, cfg))

	assert.Equal(t, 90, cfg.Binarization.Threshold)
	assert.Equal(t, core.MethodEdgeDetection, cfg.Binarization.Method)
	assert.Equal(t, 1.5, cfg.Crop.Transform.Scale)
	assert.Equal(t, "", cfg.Crop.Shape)
	assert.Equal(t, 70, cfg.Enhancement.Contrast)

	bad := &cobra.Command{Use: "y"}
	var g paramFlags
	g.register(bad)
	require.NoError(t, bad.Flags().Parse([]string{"--method", "sobel"}))
	assert.Error(t, g.apply(bad, config.DefaultConfig()))
}

func TestResolveShape(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "frame.svg")
	require.NoError(t, os.WriteFile(existing, []byte("<svg/>"), 0o644))

	assert.Equal(t, existing, resolveShape(existing, "cropper"))
	assert.Equal(t, filepath.Join("cropper", "oval.svg"), resolveShape("oval", "cropper"))
	assert.Equal(t, filepath.Join("cropper", "oval.SVG"), resolveShape("oval.SVG", "cropper"))
	assert.Equal(t, "oval", resolveShape("oval", ""))
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("scans", "page_lineart.png"), defaultOutput(filepath.Join("scans", "page.jpg"), ".png"))
}

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "drawing.png")
	writeDrawing(t, input)

	shapes := filepath.Join(dir, "shapes")
	require.NoError(t, os.Mkdir(shapes, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shapes, "box.svg"),
		[]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 4 4"><path d="M0 0 H4 V4 H0 Z"/></svg>`), 0o644))

	output := filepath.Join(dir, "out", "drawing.png")
	enhanced := filepath.Join(dir, "out", "enhanced.png")
	out, err := execute(t, "process", input, "-o", output, "--enhanced-out", enhanced,
		"--shape", "box", "--shape-dir", shapes, "--scale", "0.5", "--trim")
	require.NoError(t, err)
	assert.Contains(t, out, output)

	result := gocv.IMRead(output, gocv.IMReadGrayScale)
	defer result.Close()
	require.False(t, result.Empty())
	assert.InDelta(t, 25, result.Cols(), 1)
	assert.InDelta(t, 20, result.Rows(), 1)

	_, err = os.Stat(enhanced)
	assert.NoError(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.Mkdir(in, 0o755))
	writeDrawing(t, filepath.Join(in, "a.png"))
	writeDrawing(t, filepath.Join(in, "b.bmp"))
	writeDrawing(t, filepath.Join(in, "b.png"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("skip me"), 0o644))

	outDir := filepath.Join(dir, "out")
	out, err := execute(t, "batch", in, "-o", outDir, "--format", "bmp", "--jobs", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "processed 3 of 3")

	for _, name := range []string{"a.bmp", "b_bmp.bmp", "b_png.bmp"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestShapesCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "star.svg"),
		[]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><path d="M0 0 L20 0 L10 10 Z"/></svg>`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "line.svg"),
		[]byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 20 10"><path d="M0 0 L20 10"/></svg>`), 0o644))

	out, err := execute(t, "shapes", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "star.svg")
	assert.Contains(t, out, "20x10")
	assert.Contains(t, out, "nothing to fill")
}

func TestPresetInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")

	out, err := execute(t, "preset", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "preset", "init", path)
	assert.Error(t, err)

	out, err = execute(t, "--preset", path, "preset", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[binarization]")
	assert.Contains(t, out, "method = ")
}

func TestParamsCommand(t *testing.T) {
	out, err := execute(t, "params")
	require.NoError(t, err)
	assert.Contains(t, out, "threshold")
	assert.Contains(t, out, "0-255")
	assert.Contains(t, out, "0.5-2")
	assert.Contains(t, out, "psnr")
	assert.Contains(t, out, "ink_coverage")
}

func TestAddWatchDirsReportsMissingDirectory(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	dir := t.TempDir()
	missing := filepath.Join(dir, "gone", "frame.svg")
	errs := addWatchDirs(watcher, map[string]target{
		filepath.Join(dir, "drawing.png"): targetImage,
		missing:                           targetShape,
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), filepath.Dir(missing))
	assert.Contains(t, watcher.WatchList(), dir)
}

func TestBatchOutputsKeepSameNamedInputsApart(t *testing.T) {
	outputs := batchOutputs([]string{
		filepath.Join("in", "scan.jpg"),
		filepath.Join("in", "scan.png"),
		filepath.Join("in", "cover.bmp"),
	}, "out", ".png")

	assert.Equal(t, map[string]string{
		filepath.Join("in", "scan.jpg"):  filepath.Join("out", "scan_jpg.png"),
		filepath.Join("in", "scan.png"):  filepath.Join("out", "scan_png.png"),
		filepath.Join("in", "cover.bmp"): filepath.Join("out", "cover.png"),
	}, outputs)
}
