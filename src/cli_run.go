package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	editedSuffix string
	noTUI        bool
	quiet        bool
	batchBase    string
)

var runCmd = &cobra.Command{
	Use:   "run <dir>",
	Short: "Process every sidecar record in a directory",
	Long: `Process every *.json sidecar record in <dir>, shortest name first.

Matched media is moved to <dir>/MatchedMedia. When an edited copy exists
(e.g. photo-edited.jpg) it wins, and the original is kept in
<dir>/EditedRaw.

Examples:
  photometa-restore run ~/Takeout/Photos
  photometa-restore run ~/Takeout/Photos --edited-suffix bearbeitet
  photometa-restore run ~/Takeout/Photos --no-tui`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := RunOptions{EditedSuffix: editedSuffix, Config: cfg}

		var (
			success, errs int
			err           error
		)
		switch {
		case quiet:
			opts.Logger = logger
			success, errs, err = ProcessDirectory(ctx, dir, opts)
		case noTUI:
			opts.Logger = logger
			bar := newPercentBar("Matching")
			opts.Progress = func(percent float64, success, errors int) {
				bar.Describe(fmt.Sprintf("Matching (%d ok, %d errors)", success, errors))
				_ = bar.Set(int(percent))
			}
			success, errs, err = ProcessDirectory(ctx, dir, opts)
			_ = bar.Finish()
		default:
			// Console output would tear the full-screen view; the run log files still record everything
			success, errs, err = runTUI(ctx, dir, opts)
		}

		fmt.Println(summaryLine(success, errs))
		if errors.Is(err, context.Canceled) {
			fmt.Println("Run interrupted; remaining records are untouched and can be processed by running again.")
			return nil
		}
		return err
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <record.json>",
	Short: "Process a single sidecar record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := RunOptions{EditedSuffix: editedSuffix, Config: cfg, Logger: logger}
		if !ProcessSingleRecord(args[0], opts) {
			return fmt.Errorf("%s was not processed, see the logs directory for details", args[0])
		}
		fmt.Printf("Processed %s\n", args[0])
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>...",
	Short: "Process an explicit list of sidecar records",
	Long: `Process the given sidecar records in order. Each record is backed up to
<base>/metadata_backups before it is consumed.

The base directory defaults to the directory of the first file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		base := batchBase
		if base == "" {
			base = filepath.Dir(args[0])
		}
		p, err := NewProcessor(base, cfg.withEditedSuffix(editedSuffix), logger)
		if err != nil {
			return err
		}
		defer p.Close()

		bar := newPercentBar("Batch")
		result := NewBatchProcessor(p).Process(ctx, args, func(percent float64) {
			_ = bar.Set(int(percent))
		})
		_ = bar.Finish()

		fmt.Printf("Successful: %d\n", len(result.Successful))
		fmt.Printf("Failed:     %d\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  ✗ %s: %s\n", f.Path, f.Message)
		}
		fmt.Printf("Backups:    %d\n", len(result.Backups))
		for _, b := range result.Backups {
			logger.Debug("backup", zap.String("path", b))
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d records failed", len(result.Failed), len(args))
		}
		return nil
	},
}

func newPercentBar(desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

func init() {
	runCmd.Flags().StringVar(&editedSuffix, "edited-suffix", "", "suffix of edited copies (default from config)")
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "plain progress bar instead of the full-screen view")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress output")

	recordCmd.Flags().StringVar(&editedSuffix, "edited-suffix", "", "suffix of edited copies (default from config)")

	batchCmd.Flags().StringVar(&editedSuffix, "edited-suffix", "", "suffix of edited copies (default from config)")
	batchCmd.Flags().StringVar(&batchBase, "base", "", "directory the records belong to")

	rootCmd.AddCommand(runCmd, recordCmd, batchCmd)
}
