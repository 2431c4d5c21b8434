package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"line-art-processing/internal/config"
)

var presetForce bool

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage parameter presets",
	Long: `Manage parameter presets.

Subcommands:
  init    write a preset with default values
  show    print the effective parameters`,
}

var presetInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a preset with default values",
	Long: `Write a preset with default values to the given file (default:
lineart.yaml). The format follows the extension: .yaml, .yml or .toml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPresetInit,
}

var presetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective parameters",
	Long: `Print the parameters a command would run with: the preset named by
--preset (or ./lineart.yaml), clamped into range.`,
	RunE: runPresetShow,
}

func init() {
	presetInitCmd.Flags().BoolVarP(&presetForce, "force", "f", false, "Overwrite an existing preset")

	presetCmd.AddCommand(presetInitCmd)
	presetCmd.AddCommand(presetShowCmd)

	rootCmd.AddCommand(presetCmd)
}

func runPresetInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPresetFile
	if len(args) == 1 {
		path = args[0]
	}

	loader, err := config.NewLoaderWithPath(path)
	if err != nil {
		return err
	}
	if err := loader.Init(presetForce); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "preset written: %s\n", loader.Path())
	return nil
}

func runPresetShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	path := presetPath
	if path == "" {
		path = config.DefaultPresetFile
	}
	loader, err := config.NewLoaderWithPath(path)
	if err != nil {
		return err
	}
	data, err := loader.Marshal(cfg)
	if err != nil {
		return err
	}

	if loader.Exists() {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", loader.Path())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "# defaults")
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
