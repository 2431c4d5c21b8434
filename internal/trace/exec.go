package trace

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"line-art-processing/internal/core"
)

// DefaultTool is the bitmap tracer ExecTracer runs when none is configured.
const DefaultTool = "potrace"

// DefaultArgs traces a BMP to SVG with potrace. {input} and {output} are
// replaced by temporary file paths.
var DefaultArgs = []string{"{input}", "--svg", "--output", "{output}"}

// ExecTracer hands the image to an external bitmap-to-vector program
// through temporary files.
type ExecTracer struct {
	Tool   string
	Args   []string
	logger *logrus.Logger
}

func NewExecTracer(logger *logrus.Logger, tool string, args ...string) *ExecTracer {
	if tool == "" {
		tool = DefaultTool
	}
	if len(args) == 0 {
		args = DefaultArgs
	}
	return &ExecTracer{Tool: tool, Args: args, logger: logger}
}

func (t *ExecTracer) Name() string {
	return filepath.Base(t.Tool)
}

func (t *ExecTracer) Trace(ctx context.Context, binary gocv.Mat) ([]byte, error) {
	if err := core.ValidateImage(binary); err != nil {
		return nil, err
	}

	bin, err := exec.LookPath(t.Tool)
	if err != nil {
		return nil, errors.WithMessagef(ErrToolNotFound, "%s: %v", t.Tool, err)
	}

	dir, err := os.MkdirTemp("", "trace-*")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create temporary directory")
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.bmp")
	output := filepath.Join(dir, "output.svg")
	if ok := gocv.IMWrite(input, binary); !ok {
		return nil, errors.Errorf("cannot write tracer input %s", input)
	}

	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		arg = strings.ReplaceAll(arg, "{input}", input)
		args[i] = strings.ReplaceAll(arg, "{output}", output)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	t.logger.WithFields(logrus.Fields{
		"tool": bin,
		"args": args,
	}).Debug("Running external tracer")

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.WithMessagef(ErrToolFailed, "%s: %v: %s", t.Tool, err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, errors.WithMessagef(ErrToolFailed, "%s produced no output: %v", t.Tool, err)
	}
	return data, nil
}
