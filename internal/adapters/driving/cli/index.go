package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func newIndexCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the catalog vector index",
		Long: `The index is built from the catalog CSV on first use and reused afterwards.
These commands build it ahead of time or describe the one on disk. Neither
needs a language model API key.`,
	}
	cmd.AddCommand(newIndexBuildCmd(app), newIndexInfoCmd(app))
	return cmd
}

func newIndexBuildCmd(app *appState) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the index from the catalog",
		Long: `Loads the catalog, splits it into chunks, embeds them and writes the index
directory. An existing index is left alone unless --force is given, in which
case it is deleted and rebuilt (the catalog is checked first).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.opts.EnsureIndex == nil {
				return errors.New("index builder not configured")
			}

			start := time.Now()
			info, built, err := app.opts.EnsureIndex(cmd.Context(), app.settings, force)
			if err != nil {
				return app.fail(err)
			}

			out := cmd.OutOrStdout()
			if !built {
				fmt.Fprintf(out, "Index already exists at %s (%d entries). Use --force to rebuild.\n",
					info.Location, info.Entries)
				return nil
			}
			fmt.Fprintf(out, "Built index at %s: %d entries in %s\n",
				info.Location, info.Entries, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete and rebuild an existing index")
	return cmd
}

func newIndexInfoCmd(app *appState) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the index on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.opts.InspectIndex == nil {
				return errors.New("index inspector not configured")
			}

			info, err := app.opts.InspectIndex(cmd.Context(), app.settings)
			if err != nil {
				return app.fail(err)
			}
			if jsonFlag {
				return printJSON(cmd, info)
			}
			printIndexInfo(cmd, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "output as JSON")
	return cmd
}

func printIndexInfo(cmd *cobra.Command, info domain.IndexInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Location:   %s\n", info.Location)
	fmt.Fprintf(out, "Model:      %s\n", info.Model)
	fmt.Fprintf(out, "Dimensions: %d\n", info.Dimensions)
	fmt.Fprintf(out, "Entries:    %d\n", info.Entries)
	if !info.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:    %s\n", info.CreatedAt.Local().Format(time.RFC1123))
	}
}
