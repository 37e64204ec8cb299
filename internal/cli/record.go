package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/output"
	"github.com/GriffinCanCode/screenrec/internal/session"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var sourceID, match, outputDir string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a window or screen",
		Long:  "Select a source (by --source, --match, or from a menu), record it until Ctrl+C or --duration, then save it as WebM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			if err := deps.Encoder.Check(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, err := deps.newController(ctx, controllerOptions{outputDir: outputDir})
			if err != nil {
				return err
			}
			defer func() { _ = ctrl.Close() }()

			var src capture.Source
			if sourceID != "" {
				src, err = ctrl.SelectSourceByID(ctx, sourceID)
			} else {
				src, err = ctrl.PresentSourcePicker(ctx, deps.menu(match))
			}
			if err != nil {
				return err
			}
			formatter.SourceSelected(src)

			return runRecording(ctx, ctrl, duration, formatter)
		},
	}

	cmd.Flags().StringVarP(&sourceID, "source", "s", "", "Source ID to record (see 'screenrec sources')")
	cmd.Flags().StringVarP(&match, "match", "m", "", "Record the first source whose name contains this text")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop automatically after this long")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the saved video (defaults to output_dir)")

	return cmd
}

// runRecording records until ctx is done, limit elapses or the encoder
// exits, then waits for the save to finish.
func runRecording(ctx context.Context, ctrl *session.Controller, limit time.Duration, formatter *output.Formatter) error {
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	started := time.Now()
	formatter.RecordingStarted(limit)

	var timeout <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		timeout = timer.C
	}

	var res session.SaveResult
	ended := false
	select {
	case <-ctx.Done():
	case <-timeout:
	case res = <-ctrl.Saved():
		ended = true
	}

	if !ended {
		// the signal context may already be cancelled
		if err := ctrl.Stop(context.Background()); err != nil {
			return err
		}
		res = <-ctrl.Saved()
	}
	formatter.RecordingStopped(time.Since(started))
	if ended {
		formatter.Warning("Encoder exited before the recording was stopped")
	}

	switch {
	case res.Cancelled:
		formatter.Info("Save cancelled, recording discarded")
	case res.Err != nil:
		return res.Err
	default:
		formatter.Saved(res.Path, res.Bytes)
	}
	return nil
}
