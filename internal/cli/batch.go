package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	imageio "line-art-processing/internal/io"
)

var (
	batchFlags    paramFlags
	batchOutDir   string
	batchFormat   string
	batchJobs     int
	batchFailFast bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert every image in a directory",
	Long: `Convert every supported image directly inside a directory. Each image
is processed independently with the same parameters.

Examples:
  lineart batch scans -o out
  lineart batch scans -o out --format svg --jobs 8`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchFlags.register(batchCmd)
	batchCmd.Flags().StringVarP(&batchOutDir, "output", "o", "lineart", "Output directory")
	batchCmd.Flags().StringVar(&batchFormat, "format", "png", "Output format: png, jpg, bmp, tif or svg")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "Images processed in parallel")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Stop at the first failed image")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	inputs, err := listImages(args[0])
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.Errorf("no supported images in %s", args[0])
	}

	ext := "." + strings.TrimPrefix(strings.ToLower(batchFormat), ".")
	if ext != ".svg" && !imageio.IsSupportedImageFormat("x"+ext) {
		return errors.Errorf("unsupported output format %q, want svg or one of %s",
			batchFormat, strings.Join(imageio.SupportedExtensions(), ", "))
	}

	cfg, err := loadConfig(cmd, &batchFlags)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, batchFlags.metrics)
	if err != nil {
		return err
	}

	outputs := batchOutputs(inputs, batchOutDir, ext)

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(lo.Clamp(batchJobs, 1, 64))

	for _, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			output := outputs[input]

			result, err := processFile(cmd, p, cfg, input, output)
			if err != nil {
				failed.Add(1)
				logger.WithError(err).WithField("input", input).Error("Image failed")
				if batchFailFast {
					return errors.WithMessage(err, input)
				}
				return nil
			}
			result.Close()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	n := int(failed.Load())
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d of %d images into %s\n", len(inputs)-n, len(inputs), batchOutDir)
	if n > 0 {
		return errors.Errorf("%d images failed", n)
	}
	return nil
}

// listImages returns the supported image files directly inside dir.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", dir)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return filepath.Join(dir, e.Name()), !e.IsDir() && imageio.IsSupportedImageFormat(e.Name())
	})
	return files, nil
}

// batchOutputs maps every input to its output path in dir. Inputs that
// share a base name, like scan.jpg and scan.png, keep their source
// extension in the name so no two runs write the same file.
func batchOutputs(inputs []string, dir, ext string) map[string]string {
	stem := func(input string) string {
		return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	counts := lo.CountValuesBy(inputs, stem)

	outputs := make(map[string]string, len(inputs))
	for _, input := range inputs {
		name := stem(input)
		if counts[name] > 1 {
			name += "_" + strings.TrimPrefix(filepath.Ext(input), ".")
		}
		outputs[input] = filepath.Join(dir, name+ext)
	}
	return outputs
}
