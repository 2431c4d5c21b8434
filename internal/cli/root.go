// Package cli implements the lineart command line.
package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const AppName = "lineart"

var version = "dev"

var (
	debugMode  bool
	presetPath string

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "Turn scans and photos into clean line art",
	Long: `lineart enhances an image, reduces it to black and white with a
threshold or edge detector, and optionally crops it with an SVG border
shape. Output is a raster file, or SVG when the output name ends in .svg.

Parameters come from a preset file (YAML or TOML) and can be overridden
with flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = initLogger(debugMode)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose logging")
	rootCmd.PersistentFlags().StringVarP(&presetPath, "preset", "p", "", "Preset file (.yaml, .yml or .toml)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
