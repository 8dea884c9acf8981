package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/metrics"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// upsertBatchSize — размер пачки записей при сохранении эмбеддингов.
const upsertBatchSize = 64

// EmbeddingJobUseCase пересобирает эмбеддинги всех работ каталога.
type EmbeddingJobUseCase struct {
	artworkRepo   ArtworkRepository
	embeddingRepo EmbeddingRepository
	cacheRepo     ArtworkCacheRepository
	embeddings    EmbeddingInfra
	publisher     EventPublisher
	provider      ProviderSettings
	maxConcurrent int
	logger        logger.Logger
}

func NewEmbeddingJobUC(
	artworkRepo ArtworkRepository,
	embeddingRepo EmbeddingRepository,
	cacheRepo ArtworkCacheRepository,
	embeddings EmbeddingInfra,
	publisher EventPublisher,
	provider ProviderSettings,
	maxConcurrent int,
	logger logger.Logger,
) *EmbeddingJobUseCase {
	return &EmbeddingJobUseCase{
		artworkRepo:   artworkRepo,
		embeddingRepo: embeddingRepo,
		cacheRepo:     cacheRepo,
		embeddings:    embeddings,
		publisher:     publisher,
		provider:      provider,
		maxConcurrent: max(maxConcurrent, 1),
		logger:        logger,
	}
}

// Rebuild считает эмбеддинг для каждой работы и перезаписывает записи по id работы.
// Работы с пустым текстом пропускаются, ошибки провайдера по отдельной работе попадают в отчёт.
// Ошибка конфигурации провайдера прерывает пересборку.
func (j *EmbeddingJobUseCase) Rebuild(ctx context.Context) (*RebuildReport, error) {
	const op = "EmbeddingJobUseCase.Rebuild"

	artworks, err := j.artworkRepo.GetAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	report := &RebuildReport{Total: len(artworks)}
	records := make([]*domain.EmbeddingRecord, len(artworks))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.maxConcurrent)
	for i := range artworks {
		artwork := &artworks[i]

		text := artwork.EmbeddingText()
		if text == "" {
			report.Skipped = append(report.Skipped, artwork.ID)
			continue
		}

		g.Go(func() error {
			vec, err := j.embeddings.EmbedText(gctx, NewEmbedTextReq(j.provider, text))
			if err == nil && len(vec) == 0 {
				err = e.ErrVectorEmbeddingEmpty
			}
			if err != nil {
				if errors.Is(err, e.ErrConfiguration) || gctx.Err() != nil {
					return err
				}

				j.logger.Warnf("Embedding failed. artwork_id: %s, error: %v", artwork.ID, err)
				mu.Lock()
				report.Failed = append(report.Failed, artwork.ID)
				mu.Unlock()
				return nil
			}

			records[i] = domain.NewEmbeddingRecord(artwork.ID, vec, j.provider.Model)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.Wrap(op, err)
	}
	sort.Strings(report.Failed)

	ready := make([]domain.EmbeddingRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			ready = append(ready, *rec)
		}
	}

	for start := 0; start < len(ready); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(ready))
		if err := j.embeddingRepo.Upsert(ctx, ready[start:end]); err != nil {
			return nil, e.Wrap(op, err)
		}
	}
	report.Processed = len(ready)

	report.Published = j.publish(ctx, ready)

	metrics.RebuildArtworks.WithLabelValues("processed").Add(float64(report.Processed))
	metrics.RebuildArtworks.WithLabelValues("skipped").Add(float64(len(report.Skipped)))
	metrics.RebuildArtworks.WithLabelValues("failed").Add(float64(len(report.Failed)))

	j.logger.Infof(
		"Embeddings rebuilt. total: %d, processed: %d, skipped: %d, failed: %d, published: %d",
		report.Total, report.Processed, len(report.Skipped), len(report.Failed), report.Published,
	)

	return report, nil
}

// ImportArtworks сохраняет работы из внешнего источника и сбрасывает их кэш.
func (j *EmbeddingJobUseCase) ImportArtworks(ctx context.Context, artworks []domain.Artwork) error {
	const op = "EmbeddingJobUseCase.ImportArtworks"

	ids := make([]string, 0, len(artworks))
	for _, a := range artworks {
		if a.ID == "" {
			return e.Wrap(op, e.ErrArtworkIDRequired)
		}
		ids = append(ids, a.ID)
	}

	if len(artworks) == 0 {
		return nil
	}

	if err := j.artworkRepo.Upsert(ctx, artworks); err != nil {
		return e.Wrap(op, err)
	}

	if j.cacheRepo != nil {
		if err := j.cacheRepo.DeleteArtworks(ctx, ids); err != nil {
			j.logger.Warnf("Failed to delete artworks from cache: %v", e.Wrap(op, err))
		}
	}

	j.logger.Infof("Imported %d artworks", len(artworks))
	return nil
}

// publish отправляет событие по каждой сохранённой записи. Ошибки отправки только логируются.
func (j *EmbeddingJobUseCase) publish(ctx context.Context, records []domain.EmbeddingRecord) int {
	if j.publisher == nil {
		return 0
	}

	published := 0
	for i := range records {
		if err := j.publisher.WriteMessage(ctx, NewWriteMessageReq(&records[i])); err != nil {
			j.logger.Warnf("Failed to publish embedding event. artwork_id: %s, error: %v", records[i].ArtworkID, err)
			continue
		}
		published++
	}

	return published
}
