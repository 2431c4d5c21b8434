package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"line-art-processing/internal/config"
	"line-art-processing/internal/pipeline"
	"line-art-processing/internal/session"
)

var (
	watchFlags  paramFlags
	watchOutput string
	watchDelay  time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <image>",
	Short: "Reprocess an image whenever it or its preset changes",
	Long: `Process an image, then keep watching the image, the preset and the
crop shape. Every change reruns the pipeline from the original after a
short quiet period; only the latest change is applied.

Examples:
  lineart watch scan.jpg -o scan.png --preset tuning.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Output file (default: <image>_lineart.png)")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", session.DefaultDelay, "Quiet period before a rerun")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	input := filepath.Clean(args[0])
	output := watchOutput
	if output == "" {
		output = defaultOutput(input, ".png")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, &watchFlags)
	if err != nil {
		return err
	}
	p, err := newPipeline(cfg, watchFlags.metrics)
	if err != nil {
		return err
	}

	runner := session.NewRunner(p, logger, watchDelay)
	defer runner.Stop()
	runner.SetCallbacks(
		func(seq uint64, result *pipeline.Result) {
			if err := p.Export(ctx, result, output); err != nil {
				logger.WithError(err).Error("Cannot write output")
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s -> %s (%s)\n", seq, input, output, result.Duration.Round(time.Millisecond))
		},
		func(seq uint64, err error) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d] failed: %v\n", seq, err)
		},
	)

	if err := runner.LoadImage(input); err != nil {
		return err
	}

	submit := func() {
		crop, err := newCrop(cfg)
		if err != nil {
			logger.WithError(err).Error("Invalid crop settings")
			return
		}
		if _, err := runner.Submit(session.Request{Params: paramsOf(cfg), Crop: crop}); err != nil {
			logger.WithError(err).Error("Cannot schedule run")
		}
	}
	submit()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot start file watcher")
	}
	defer watcher.Close()

	preset := presetPath
	if preset == "" {
		if _, err := os.Stat(config.DefaultPresetFile); err == nil {
			preset = config.DefaultPresetFile
		}
	}
	watched := watchTargets(input, preset, cfg)
	for dir := range watchDirs(watched) {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "cannot watch %s", dir)
		}
	}
	logger.WithFields(logrus.Fields{
		"files":  len(watched),
		"output": output,
	}).Info("Watching for changes")

	for {
		select {
		case <-ctx.Done():
			runner.Wait()
			logger.WithFields(runner.Stats().Fields()).Info("Watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			kind, ok := watched[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			logger.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Change detected")

			switch kind {
			case targetImage:
				if err := runner.LoadImage(input); err != nil {
					// Often a half-written file; the next write event retries.
					logger.WithError(err).Warn("Cannot reload image, keeping the previous one")
					continue
				}
			case targetPreset:
				next, err := loadConfig(cmd, &watchFlags)
				if err != nil {
					logger.WithError(err).Warn("Cannot reload preset, keeping the previous one")
					continue
				}
				cfg = next
				watched = watchTargets(input, preset, cfg)
				for _, err := range addWatchDirs(watcher, watched) {
					logger.WithError(err).Warn("Cannot watch directory, changes there are missed")
				}
			}
			submit()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("File watcher error")
		}
	}
}

type target int

const (
	targetImage target = iota
	targetPreset
	targetShape
)

func watchTargets(input, preset string, cfg *config.Config) map[string]target {
	targets := map[string]target{filepath.Clean(input): targetImage}
	if preset != "" {
		targets[filepath.Clean(preset)] = targetPreset
	}
	if cfg.Crop.Shape != "" {
		targets[filepath.Clean(resolveShape(cfg.Crop.Shape, cfg.Crop.ShapeDir))] = targetShape
	}
	return targets
}

// addWatchDirs adds the parent directory of every file to watcher and
// returns one error per directory that could not be added.
func addWatchDirs(watcher *fsnotify.Watcher, files map[string]target) []error {
	var errs []error
	for dir := range watchDirs(files) {
		if err := watcher.Add(dir); err != nil {
			errs = append(errs, errors.Wrapf(err, "cannot watch %s", dir))
		}
	}
	return errs
}

// watchDirs returns the parent directories of files. Events are matched
// by name, so a file replaced by rename is still seen.
func watchDirs(files map[string]target) map[string]struct{} {
	dirs := make(map[string]struct{}, len(files))
	for file := range files {
		dirs[filepath.Dir(file)] = struct{}{}
	}
	return dirs
}

