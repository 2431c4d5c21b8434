// Line Art Processing - command line entry point
// Version: 1.0.0

package main

import (
	"os"

	"line-art-processing/internal/cli"
)

const AppVersion = "1.0.0"

func main() {
	cli.SetVersion(AppVersion)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
