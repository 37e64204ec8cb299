package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/config"
	"github.com/GriffinCanCode/screenrec/internal/dialog"
	"github.com/GriffinCanCode/screenrec/internal/media"
	"github.com/GriffinCanCode/screenrec/internal/preview"
	"github.com/GriffinCanCode/screenrec/internal/session"
	"github.com/GriffinCanCode/screenrec/internal/sink"
	"github.com/GriffinCanCode/screenrec/internal/version"
)

// Encoder is a media.Encoder whose prerequisites can be checked.
type Encoder interface {
	media.Encoder
	Check() error
}

type Dependencies struct {
	Config   *config.Config
	Platform capture.Platform
	Encoder  Encoder
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "screenrec",
		Short:         "Record a window or screen to WebM",
		Long:          "Pick a window or screen, preview it, record it, and save the result as a VP9 WebM video.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.AddCommand(NewSourcesCmd(deps))
	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

// controllerOptions picks dialogs and sink from the configuration.
type controllerOptions struct {
	outputDir string
	preview   *preview.Surface
}

func (d *Dependencies) newController(ctx context.Context, opts controllerOptions) (*session.Controller, error) {
	snk, err := d.newSink(ctx)
	if err != nil {
		return nil, err
	}
	dir := opts.outputDir
	if dir == "" {
		dir = d.Config.OutputDir
	}
	var prompt dialog.SavePrompt = dialog.Zenity{DefaultDir: dir}
	if d.Config.Headless {
		prompt = dialog.Directory{Dir: dir}
	}
	return session.New(session.Options{
		Platform: d.Platform,
		NewRecorder: session.NewMediaRecorder(d.Encoder, media.Options{
			MimeType:  media.MimeTypeWebMVP9,
			ChunkSize: d.Config.ChunkSize,
		}),
		Prompt:  prompt,
		Sink:    snk,
		Preview: opts.preview,
	}), nil
}

func (d *Dependencies) newSink(ctx context.Context) (sink.Sink, error) {
	if d.Config.SaveTarget == config.SaveTargetS3 {
		return sink.NewS3(ctx, d.Config.S3Bucket, d.Config.S3Prefix, d.Config.S3Region)
	}
	return sink.File{}, nil
}

func (d *Dependencies) menu(query string) dialog.Menu {
	if d.Config.Headless || query != "" {
		return dialog.Match{Query: query}
	}
	return dialog.Zenity{}
}
