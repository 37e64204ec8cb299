package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/output"
	"github.com/GriffinCanCode/screenrec/internal/session"
)

func NewSourcesCmd(deps *Dependencies) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List capturable windows and screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := output.NewFormatter(cmd.OutOrStdout())

			switch capture.Kind(kind) {
			case "", capture.KindWindow, capture.KindScreen:
			default:
				return fmt.Errorf("unknown kind %q (want window or screen)", kind)
			}

			ctrl := session.New(session.Options{Platform: deps.Platform})
			defer func() { _ = ctrl.Close() }()

			sources, err := ctrl.ListSources(cmd.Context())
			if err != nil {
				return err
			}

			var shown []capture.Source
			for _, src := range sources {
				if kind == "" || src.Kind == capture.Kind(kind) {
					shown = append(shown, src)
				}
			}
			if len(shown) == 0 {
				formatter.Info("No sources found")
				return nil
			}

			formatter.SourceListHeader()
			for _, src := range shown {
				formatter.SourceListItem(src)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only list sources of this kind (window or screen)")

	return cmd
}
