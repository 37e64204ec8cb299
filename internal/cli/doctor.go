package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/screenrec/internal/config"
	"github.com/GriffinCanCode/screenrec/internal/output"
	"github.com/GriffinCanCode/screenrec/internal/session"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			ok := true

			if err := deps.Encoder.Check(); err != nil {
				f.SetupCheck("ffmpeg", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("ffmpeg", true, "installed")
			}

			ctrl := session.New(session.Options{Platform: deps.Platform})
			defer func() { _ = ctrl.Close() }()
			if sources, err := ctrl.ListSources(cmd.Context()); err != nil {
				f.SetupCheck("Screen capture", false, err.Error())
				ok = false
			} else {
				f.SetupCheck("Screen capture", true, pluralize(len(sources), "source"))
			}

			if path := config.FilePath(); path != "" {
				f.SetupCheck("Config file", true, path)
			} else {
				f.SetupCheck("Config file", true, "none, using defaults and environment")
			}

			if deps.Config.SaveTarget == config.SaveTargetS3 {
				f.SetupCheck("Save target", true, "s3://"+deps.Config.S3Bucket+"/"+deps.Config.S3Prefix)
			} else {
				f.SetupCheck("Output directory", true, deps.Config.OutputDir)
			}

			if ok {
				f.Success("\nAll prerequisites met. Ready to record!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
