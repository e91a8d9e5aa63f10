package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/adapters/driving/tui"
)

func newTUICmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal UI",
		Long: `Launch a full-screen recommender.

Controls:
  Enter  - Ask / search
  Tab    - Switch between recommendations and raw catalog search
  ↑/↓    - Move through sources
  Esc    - Clear
  Ctrl+C - Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			return tui.Run(ctx, &tui.Ports{Recommender: svc})
		},
	}
}
