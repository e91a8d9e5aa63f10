package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

func newSearchCmd(app *appState) *cobra.Command {
	var (
		limit    int
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Show the catalog entries closest to a query",
		Long: `Runs only the retrieval step and prints the matching catalog chunks with
their cosine similarity scores. No language model is called, which makes
this useful for checking what a recommendation will be based on.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := app.service(ctx)
			if err != nil {
				return err
			}
			defer app.close()

			hits, err := svc.Search(ctx, strings.Join(args, " "), limit)
			if err != nil {
				return app.fail(err)
			}
			if jsonFlag {
				return printJSON(cmd, searchJSON(hits))
			}
			printHits(cmd, hits)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default: retrieval top-k)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "output results as JSON")
	return cmd
}

type hitJSON struct {
	Title   string   `json:"title"`
	Genres  []string `json:"genres,omitempty"`
	Score   float64  `json:"score"`
	Content string   `json:"content"`
}

func searchJSON(hits domain.QueryResult) []hitJSON {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{Title: h.Chunk.Title, Genres: h.Chunk.Genres, Score: h.Score, Content: h.Chunk.Content}
	}
	return out
}

func printHits(cmd *cobra.Command, hits domain.QueryResult) {
	out := cmd.OutOrStdout()
	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return
	}

	fmt.Fprintln(out, "Results:")
	for i, h := range hits {
		// Format: [N] Title (Genres)  score
		title := h.Chunk.Title
		if len(h.Chunk.Genres) > 0 {
			title += " (" + strings.Join(h.Chunk.Genres, ", ") + ")"
		}
		fmt.Fprintf(out, "\n[%d] %s  %.3f\n", i+1, title, h.Score)

		preview := strings.Join(strings.Fields(h.Chunk.Content), " ")
		if r := []rune(preview); len(r) > 160 {
			preview = string(r[:157]) + "..."
		}
		fmt.Fprintf(out, "    %s\n", preview)
	}
}
