package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"line-art-processing/internal/core"
	"line-art-processing/internal/metrics"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List parameter ranges and quality metrics",
	Long: `List every processing parameter with its range and default, followed
by the quality metrics reported with --metrics.

Values outside a range are clamped before processing.`,
	Args: cobra.NoArgs,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "STAGE\tPARAMETER\tRANGE\tDEFAULT\tDESCRIPTION")
	stages := []struct {
		name string
		info []core.ParameterInfo
	}{
		{"enhancement", core.EnhancementParameterInfo()},
		{"binarization", core.BinarizationParameterInfo()},
	}
	for _, stage := range stages {
		for _, p := range stage.info {
			fmt.Fprintf(w, "%s\t%s\t%g-%g\t%g\t%s\n", stage.name, p.Name, p.Min, p.Max, p.Default, p.Description)
		}
	}
	fmt.Fprintf(w, "crop\tscale\t%g-%g\t1\tShape size relative to the image\n", core.MinCropScale, core.MaxCropScale)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "METRIC\tRANGE\tBETTER\tDESCRIPTION")
	for _, m := range metrics.NewEvaluator().Describe() {
		better := "lower"
		if m.HigherBetter {
			better = "higher"
		}
		fmt.Fprintf(w, "%s\t%g-%g\t%s\t%s\n", m.Key, m.Min, m.Max, better, m.Description)
	}
	return w.Flush()
}
