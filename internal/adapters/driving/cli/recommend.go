package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// exampleQueries are shown when the interactive prompt starts.
var exampleQueries = []string{
	"lighthearted school anime",
	"dark fantasy with strong female leads",
	"mecha action series",
}

type recommendFlags struct {
	json    bool
	sources bool
}

func newRecommendCmd(app *appState) *cobra.Command {
	flags := &recommendFlags{}

	cmd := &cobra.Command{
		Use:   "recommend [query]",
		Short: "Recommend anime matching your preferences",
		Long: `Retrieves the catalog titles closest to your description and asks the
language model to recommend from them. Only titles found in the catalog are
recommended.

With no query on an interactive terminal, starts a prompt that answers one
query per line until 'exit'. With no query and piped input, the whole input
is used as one query.`,
		Example: `  animerec recommend "lighthearted school anime"
  animerec recommend --sources dark fantasy with strong female leads
  echo "mecha action series" | animerec recommend --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, app, flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.json, "json", false, "output the recommendation as JSON")
	cmd.Flags().BoolVar(&flags.sources, "sources", false, "list the catalog titles the answer was based on")
	return cmd
}

func runRecommend(cmd *cobra.Command, app *appState, flags *recommendFlags, args []string) error {
	ctx := cmd.Context()

	if len(args) == 0 && app.opts.IsTerminal() && !flags.json {
		svc, err := app.service(ctx)
		if err != nil {
			return err
		}
		defer app.close()
		return interactive(ctx, cmd, app, svc, flags)
	}

	query := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(app.opts.In)
		if err != nil {
			return fmt.Errorf("reading query from stdin: %w", err)
		}
		query = string(data)
	}
	if strings.TrimSpace(query) == "" {
		return errors.New("no query given; pass one as an argument or on stdin")
	}

	svc, err := app.service(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	rec, err := svc.Recommend(ctx, query)
	if err != nil {
		return app.fail(err)
	}
	if flags.json {
		return printJSON(cmd, rec)
	}
	printRecommendation(cmd, rec, flags.sources)
	return nil
}

// interactive answers one query per line until exit, quit or EOF.
// Per-query failures are reported and the loop continues.
func interactive(ctx context.Context, cmd *cobra.Command, app *appState, svc Service, flags *recommendFlags) error {
	out := cmd.OutOrStdout()
	minLen := svc.MinQueryLength()

	fmt.Fprintln(out, "Anime Recommender")
	fmt.Fprintln(out, "Describe what you'd like to watch. Type 'exit' to quit.")
	fmt.Fprintln(out, "Try:")
	for _, q := range exampleQueries {
		fmt.Fprintf(out, "  - %s\n", q)
	}

	scanner := bufio.NewScanner(app.opts.In)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if len([]rune(query)) < minLen {
			fmt.Fprintf(out, "Please enter at least %d characters.\n", minLen)
			continue
		}

		fmt.Fprintln(out, "Finding recommendations...")
		rec, err := svc.Recommend(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(cmd.ErrOrStderr(), app.fail(err))
			continue
		}
		fmt.Fprintln(out)
		printRecommendation(cmd, rec, flags.sources)
	}
}

func printRecommendation(cmd *cobra.Command, rec domain.Recommendation, withSources bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rec.Answer)
	fmt.Fprintf(out, "\nDocuments retrieved: %d\n", rec.Retrieved)

	if !withSources || len(rec.Sources) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSources:")
	for i, s := range rec.Sources {
		line := fmt.Sprintf("  [%d] %s", i+1, s.Title)
		if len(s.Genres) > 0 {
			line += " (" + strings.Join(s.Genres, ", ") + ")"
		}
		fmt.Fprintf(out, "%s  %.3f\n", line, s.Score)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
