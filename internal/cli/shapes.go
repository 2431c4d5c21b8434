package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"line-art-processing/internal/vector"
)

var shapesRaw bool

var shapesCmd = &cobra.Command{
	Use:   "shapes [dir]",
	Short: "List crop border shapes",
	Long: `List the SVG crop border shapes in a directory (default: ./cropper)
with their natural size and number of fillable outlines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShapes,
}

func init() {
	shapesCmd.Flags().BoolVar(&shapesRaw, "raw", false, "Parse paths as raw coordinate pairs")

	rootCmd.AddCommand(shapesCmd)
}

func runShapes(cmd *cobra.Command, args []string) error {
	dir := vector.DefaultLibraryDir
	if len(args) == 1 {
		dir = args[0]
	}

	entries, err := vector.List(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no shapes in %s\n", dir)
		return nil
	}

	mode := vector.ModeFlatten
	if shapesRaw {
		mode = vector.ModeRaw
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tOUTLINES\tPOINTS\tSTATUS")
	for _, entry := range entries {
		shape, err := vector.LoadShape(entry.Path, mode)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", entry.Name, err)
			continue
		}
		width, height := shape.NaturalSize()
		status := "ok"
		if shape.FillableCount() == 0 {
			status = "nothing to fill"
		}
		fmt.Fprintf(w, "%s\t%gx%g\t%d\t%d\t%s\n", entry.Name, width, height, shape.FillableCount(), shape.PointCount(), status)
	}
	return w.Flush()
}

