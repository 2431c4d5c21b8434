package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"line-art-processing/internal/config"
	"line-art-processing/internal/pipeline"
)

var (
	processFlags       paramFlags
	processOutput      string
	processEnhancedOut string
)

var processCmd = &cobra.Command{
	Use:   "process <image>",
	Short: "Convert one image to line art",
	Long: `Convert one image to line art.

The cropped image is written when a crop shape is configured, the
binarized image otherwise. An output name ending in .svg is traced to
vector paths.

Examples:
  lineart process scan.jpg -o scan.png
  lineart process scan.jpg -o scan.svg --method edge --line-thickness 2
  lineart process scan.jpg -o framed.png --shape oval --scale 0.8`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processFlags.register(processCmd)
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "Output file (default: <image>_lineart.png)")
	processCmd.Flags().StringVar(&processEnhancedOut, "enhanced-out", "", "Also save the enhanced image here")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := processOutput
	if output == "" {
		output = defaultOutput(input, ".png")
	}

	cfg, err := loadConfig(cmd, &processFlags)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, processFlags.metrics)
	if err != nil {
		return err
	}

	result, err := processFile(cmd, p, cfg, input, output)
	if err != nil {
		return err
	}
	defer result.Close()

	if processEnhancedOut != "" {
		if err := p.Loader().SaveImage(result.Enhanced, processEnhancedOut); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", input, output)
	return nil
}

// processFile runs one image through p and exports its artifact. The
// caller owns the returned Result.
func processFile(cmd *cobra.Command, p *pipeline.Pipeline, cfg *config.Config, input, output string) (*pipeline.Result, error) {
	original, err := p.Loader().LoadImage(input)
	if err != nil {
		return nil, err
	}
	defer original.Close()

	crop, err := newCrop(cfg)
	if err != nil {
		return nil, err
	}

	result, err := p.Run(original, paramsOf(cfg), crop)
	if err != nil {
		return nil, err
	}

	if err := p.Export(cmd.Context(), result, output); err != nil {
		result.Close()
		return nil, err
	}

	fields := logrus.Fields{
		"input":         input,
		"output":        output,
		"threshold":     result.Threshold,
		"cropped":       result.HasCropped(),
		"mask_fallback": result.MaskFallback(),
		"duration":      result.Duration,
	}
	for name, value := range result.Metrics {
		fields["metric_"+name] = value
	}
	logger.WithFields(fields).Info("Image processed")

	return result, nil
}

func defaultOutput(input, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), base+"_lineart"+ext)
}
