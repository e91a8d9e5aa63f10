package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/adapters/driving/api"
)

func newServeCmd(app *appState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Long: `Starts the JSON API:

  POST /api/v1/recommend   {"query": "..."}
  GET  /api/v1/search?q=...&k=5
  GET  /api/v1/index
  GET  /healthz
  GET  /metrics            Prometheus metrics

The generation provider is checked and the index is built or loaded
before the listener starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.settings.Server.Addr
			}

			ctx := cmd.Context()
			if err := app.preflight(ctx); err != nil {
				return err
			}
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			server, err := api.NewServer(svc, api.WithRequestTimeout(app.settings.LLM.Timeout+app.settings.LLM.Timeout/2))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s\n", addr)
			return server.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr, :8080)")
	return cmd
}
