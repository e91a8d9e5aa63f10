package services

import (
	"context"
	"os"

	"github.com/custodia-labs/animerec/internal/core/domain"
)

// EnsureIndex builds the index at settings.Index.Dir unless one is already
// there. With force an existing index is removed first. built reports
// whether a build ran. The LLM dependency is not used.
func EnsureIndex(ctx context.Context, settings domain.Settings, deps Dependencies, force bool) (info domain.IndexInfo, built bool, err error) {
	const op = "index.ensure"

	if deps.Store == nil || deps.Embedder == nil {
		return domain.IndexInfo{}, false, domain.Errorf(domain.ErrConfig, op, "index store and embedder are required")
	}

	dir := settings.Index.Dir
	exists, err := deps.Store.Exists(dir)
	if err != nil {
		return domain.IndexInfo{}, false, domain.Wrap(domain.ErrIndexLoad, op, err)
	}

	if exists && !force {
		info, err := InspectIndex(ctx, settings, deps)
		return info, false, err
	}

	if deps.Loader == nil || deps.Chunker == nil {
		return domain.IndexInfo{}, false, domain.Errorf(domain.ErrConfig, op, "catalog loader and chunker are required")
	}
	if exists {
		// Verify the catalog and embedder before discarding a working index.
		if err := checkCatalog(settings.Catalog.Path); err != nil {
			return domain.IndexInfo{}, false, err
		}
		if err := checkEmbedder(ctx, deps.Embedder); err != nil {
			return domain.IndexInfo{}, false, err
		}
		if err := os.RemoveAll(dir); err != nil {
			return domain.IndexInfo{}, false, domain.Wrap(domain.ErrIndexBuild, op, err)
		}
	}

	info, err = BuildIndex(ctx, settings, deps)
	if err != nil {
		return domain.IndexInfo{}, false, err
	}
	return info, true, nil
}

// InspectIndex opens the index at settings.Index.Dir and returns its
// description without touching the catalog.
func InspectIndex(ctx context.Context, settings domain.Settings, deps Dependencies) (domain.IndexInfo, error) {
	const op = "index.inspect"

	if deps.Store == nil || deps.Embedder == nil {
		return domain.IndexInfo{}, domain.Errorf(domain.ErrConfig, op, "index store and embedder are required")
	}

	dir := settings.Index.Dir
	exists, err := deps.Store.Exists(dir)
	if err != nil {
		return domain.IndexInfo{}, domain.Wrap(domain.ErrIndexLoad, op, err)
	}
	if !exists {
		return domain.IndexInfo{}, domain.Errorf(domain.ErrIndexLoad, op, "no index at %s", dir)
	}

	index, err := deps.Store.Load(ctx, dir, deps.Embedder)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	defer index.Close()
	return index.Info(), nil
}
