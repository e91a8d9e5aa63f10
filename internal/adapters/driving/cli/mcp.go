package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/adapters/driving/mcp"
)

func newMCPCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
	}

	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start a Model Context Protocol server exposing the recommend_anime and
search_catalog tools and the animerec://index resource.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport at /mcp instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  animerec mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  animerec mcp serve --port 8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := app.preflight(ctx); err != nil {
				return err
			}
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			server, err := mcp.NewServer(&mcp.Ports{Recommender: svc})
			if err != nil {
				return err
			}

			if port > 0 {
				addr := fmt.Sprintf(":%d", port)
				fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
				return server.RunHTTP(ctx, addr)
			}
			return server.Run(ctx)
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "HTTP port (0 = use stdio)")

	cmd.AddCommand(serve)
	return cmd
}
