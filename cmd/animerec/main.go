// Command animerec recommends anime from a local catalog using retrieval
// augmented generation.
package main

import (
	"context"
	"os"

	"github.com/custodia-labs/animerec/internal/adapters/driven/ai"
	"github.com/custodia-labs/animerec/internal/adapters/driven/catalog/csvfile"
	"github.com/custodia-labs/animerec/internal/adapters/driven/config/file"
	"github.com/custodia-labs/animerec/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/animerec/internal/adapters/driving/cli"
	"github.com/custodia-labs/animerec/internal/core/domain"
	"github.com/custodia-labs/animerec/internal/core/services"
	"github.com/custodia-labs/animerec/internal/logger"
	"github.com/custodia-labs/animerec/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Execute(cli.Options{
		Version:      version,
		LoadSettings: file.Load,
		NewService:   newService,
		EnsureIndex:  ensureIndex,
		InspectIndex: inspectIndex,
		CheckLLM:     ai.ValidateLLMConfig,
	}))
}

// indexDeps assembles everything needed to build or read the index.
// The caller closes the returned embedder.
func indexDeps(settings domain.Settings) (services.Dependencies, error) {
	embedder, err := ai.CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return services.Dependencies{}, err
	}
	return services.Dependencies{
		Loader: csvfile.NewLoader(
			csvfile.WithTitleColumn(settings.Catalog.TitleColumn),
			csvfile.WithGenreColumn(settings.Catalog.GenreColumn),
		),
		Chunker:  postprocessors.NewChunker(settings.Chunker),
		Embedder: embedder,
		Store: sqlite.NewIndexStore(
			sqlite.WithWorkers(settings.Index.Workers),
			sqlite.WithBatchSize(settings.Index.BatchSize),
		),
	}, nil
}

func newService(ctx context.Context, settings domain.Settings) (cli.Service, error) {
	deps, err := indexDeps(settings)
	if err != nil {
		return nil, domain.Wrap(domain.ErrPipelineInit, "main", err)
	}

	llm, err := ai.CreateLLMService(settings.LLM)
	if err != nil {
		_ = deps.Embedder.Close()
		return nil, domain.Wrap(domain.ErrPipelineInit, "main", err)
	}
	deps.LLM = llm

	prompts, err := file.NewPromptStore("")
	if err != nil {
		logger.Warn("prompt store unavailable, using built-in prompts: %v", err)
	} else {
		deps.PromptStore = prompts
	}

	pipeline, err := services.NewPipeline(ctx, settings, deps)
	if err != nil {
		_ = llm.Close()
		_ = deps.Embedder.Close()
		return nil, err
	}
	return pipeline, nil
}

func ensureIndex(ctx context.Context, settings domain.Settings, force bool) (domain.IndexInfo, bool, error) {
	deps, err := indexDeps(settings)
	if err != nil {
		return domain.IndexInfo{}, false, err
	}
	defer deps.Embedder.Close()
	return services.EnsureIndex(ctx, settings, deps, force)
}

func inspectIndex(ctx context.Context, settings domain.Settings) (domain.IndexInfo, error) {
	deps, err := indexDeps(settings)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	defer deps.Embedder.Close()
	return services.InspectIndex(ctx, settings, deps)
}
