// Package cli provides the animerec command line interface.
//
// Commands are assembled by NewRootCmd around an explicit state value
// rather than package globals, so every invocation (and every test) gets a
// fresh command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/ports/driving"
	"github.com/custodia-labs/animerec/internal/logger"
)

// Service is the recommendation service the commands drive.
type Service interface {
	driving.RecommendationService
	Close() error
}

// Options wires the command tree to the application. LoadSettings and
// NewService are required; the rest fall back to sensible defaults.
type Options struct {
	Version string

	// LoadSettings reads settings from path ("" for the default location).
	LoadSettings func(path string) (domain.Settings, error)

	// NewService builds the full pipeline, including the generation client.
	NewService func(ctx context.Context, settings domain.Settings) (Service, error)

	// EnsureIndex builds the index, rebuilding it when force is set.
	EnsureIndex func(ctx context.Context, settings domain.Settings, force bool) (domain.IndexInfo, bool, error)

	// InspectIndex describes the existing index without generation.
	InspectIndex func(ctx context.Context, settings domain.Settings) (domain.IndexInfo, error)

	// CheckLLM pings the generation provider. Long-running servers call it
	// before building the pipeline. Nil skips the check.
	CheckLLM func(ctx context.Context, settings domain.LLMSettings) error

	// In is read by recommend when no query argument is given.
	In io.Reader

	// IsTerminal reports whether In is an interactive terminal.
	IsTerminal func() bool
}

// skipSetup marks commands that run without loading settings.
const skipSetup = "animerec/skip-setup"

// appState carries per-invocation state between the root hooks and commands.
type appState struct {
	opts       Options
	configPath string
	verbose    bool
	settings   domain.Settings
	svc        Service
}

// NewRootCmd returns the animerec command tree.
func NewRootCmd(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	app := &appState{opts: opts}

	root := &cobra.Command{
		Use:   "animerec",
		Short: "Anime recommendations from your own catalog",
		Long: `animerec answers "what should I watch?" questions using a local anime
catalog. Matching titles are retrieved from a vector index built from the
catalog CSV and handed to a language model that writes the recommendation.

Set PROCESSED_CSV_PATH to the catalog and GROQ_API_KEY (or configure another
provider in ~/.animerec/config.toml), then run:

  animerec recommend "dark fantasy with strong female leads"`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file (default ~/.animerec/config.toml)")
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRecommendCmd(app),
		newSearchCmd(app),
		newIndexCmd(app),
		newServeCmd(app),
		newTUICmd(app),
		newMCPCmd(app),
		newVersionCmd(app),
	)
	return root
}

// Execute runs the command tree with a context cancelled on SIGINT/SIGTERM
// and prints friendly errors to stderr.
func Execute(opts Options) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd(opts)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func (a *appState) setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(a.verbose)
	if !needsSetup(cmd) {
		return nil
	}
	if a.opts.LoadSettings == nil {
		return errors.New("settings loader not configured")
	}

	settings, err := a.opts.LoadSettings(a.configPath)
	if err != nil {
		return a.fail(err)
	}
	logger.Init(logger.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	logger.Debug("Settings: %s", settings)
	a.settings = settings
	return nil
}

func needsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetup] == "true" || c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

// service builds the pipeline on first use. Callers defer close.
func (a *appState) service(ctx context.Context) (Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if a.opts.NewService == nil {
		return nil, errors.New("recommendation service not configured")
	}
	svc, err := a.opts.NewService(ctx, a.settings)
	if err != nil {
		return nil, a.fail(err)
	}
	a.svc = svc
	return svc, nil
}

// preflight verifies the generation provider answers before a server
// starts accepting requests.
func (a *appState) preflight(ctx context.Context) error {
	if a.opts.CheckLLM == nil {
		return nil
	}
	logger.Debug("Checking %s provider", a.settings.LLM.Provider)
	if err := a.opts.CheckLLM(ctx, a.settings.LLM); err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *appState) close() {
	if a.svc == nil {
		return
	}
	if err := a.svc.Close(); err != nil {
		logger.Warn("closing service: %v", err)
	}
	a.svc = nil
}

// fail logs err with its full chain at error level and returns a message
// fit for the user.
func (a *appState) fail(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	logger.Error(err, "command failed")
	msg, hint := domain.Explain(err)
	if a.verbose {
		return fmt.Errorf("%s\n  cause: %v\n  hint: %s", msg, err, hint)
	}
	return fmt.Errorf("%s\n  hint: %s", msg, hint)
}
