package app

import (
	"context"
	"os"

	config "github.com/DRSN-tech/artwork-recommender/internal/cfg"
	v1Http "github.com/DRSN-tech/artwork-recommender/internal/delivery/v1/http"
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
)

// RunEmbedder пересобирает эмбеддинги каталога. Если importFile задан,
// работы из JSON-файла сначала записываются в хранилище.
func RunEmbedder(ctx context.Context, cfg *config.Config, logger logger.Logger, importFile string) (*usecase.RebuildReport, error) {
	const op = "App.RunEmbedder"

	// без провайдера пересборка бессмысленна
	if err := cfg.Embedding.Validate(); err != nil {
		return nil, e.Wrap(op, err)
	}

	var artworks []domain.Artwork
	if importFile != "" {
		var err error
		if artworks, err = ReadArtworksFile(importFile); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	deps, err := NewDeps(ctx, cfg, logger)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err := deps.Closer.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warnf("resources closed with errors: %v", err)
		}
	}()

	jobUC := usecase.NewEmbeddingJobUC(
		deps.ArtworkRepo,
		deps.EmbeddingRepo,
		deps.CacheRepo,
		deps.Embeddings,
		deps.Publisher,
		deps.Provider,
		cfg.Embedding.MaxConcurrent,
		logger,
	)

	if len(artworks) > 0 {
		if err := jobUC.ImportArtworks(ctx, artworks); err != nil {
			return nil, e.Wrap(op, err)
		}
		logger.Infof("imported %d artworks from %s", len(artworks), importFile)
	}

	report, err := jobUC.Rebuild(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return report, nil
}

// ReadArtworksFile читает JSON-массив работ в формате витрины.
func ReadArtworksFile(path string) ([]domain.Artwork, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var items []v1Http.ArtworkRequest
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	artworks := make([]domain.Artwork, 0, len(items))
	for i := range items {
		artworks = append(artworks, *items[i].ToDomain())
	}

	return artworks, nil
}
