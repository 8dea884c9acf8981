package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/metrics"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/DRSN-tech/artwork-recommender/pkg/vector"
	"golang.org/x/sync/errgroup"
)

// hydrateConcurrency ограничивает число одновременных чтений работ по id.
const hydrateConcurrency = 8

// RecommendationUseCase подбирает похожие работы по эмбеддингам
// и откатывается на ранжирование по категории и региону.
type RecommendationUseCase struct {
	artworkRepo   ArtworkRepository
	embeddingRepo EmbeddingRepository
	cacheRepo     ArtworkCacheRepository
	embeddings    EmbeddingInfra
	imagesInfra   ImagesInfra
	provider      ProviderSettings
	limits        Limits
	logger        logger.Logger
}

func NewRecommendationUC(
	artworkRepo ArtworkRepository,
	embeddingRepo EmbeddingRepository,
	cacheRepo ArtworkCacheRepository,
	embeddings EmbeddingInfra,
	imagesInfra ImagesInfra,
	provider ProviderSettings,
	limits Limits,
	logger logger.Logger,
) *RecommendationUseCase {
	return &RecommendationUseCase{
		artworkRepo:   artworkRepo,
		embeddingRepo: embeddingRepo,
		cacheRepo:     cacheRepo,
		embeddings:    embeddings,
		imagesInfra:   imagesInfra,
		provider:      provider,
		limits:        limits,
		logger:        logger,
	}
}

// Recommend находит исходную работу, пробует путь эмбеддингов и при любой его ошибке
// переключается на запасное ранжирование по полному списку работ.
// Пустой результат не является ошибкой: возвращается стратегия StrategyNone.
func (r *RecommendationUseCase) Recommend(ctx context.Context, req *RecommendReq) (*RecommendationsRes, error) {
	const op = "RecommendationUseCase.Recommend"
	start := time.Now()

	source, err := r.resolveSource(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := r.recommend(ctx, source)

	metrics.Recommendations.WithLabelValues(string(res.Strategy)).Inc()
	metrics.RecommendationDuration.WithLabelValues(string(res.Strategy)).Observe(time.Since(start).Seconds())

	return res, nil
}

func (r *RecommendationUseCase) recommend(ctx context.Context, source *domain.Artwork) *RecommendationsRes {
	items, err := r.GetRecommendations(ctx, source)
	if err == nil {
		return NewRecommendationsRes(StrategyEmbedding, items)
	}
	r.logger.Warnf("Embedding recommendations failed, using fallback. artwork_id: %s, error: %v", source.ID, err)

	candidates, err := r.artworkRepo.GetAll(ctx)
	if err != nil {
		r.logger.Errorf(err, "Failed to load artworks for fallback. artwork_id: %s", source.ID)
		return NewRecommendationsRes(StrategyNone, nil)
	}

	items = r.GetFallbackRecommendations(ctx, source, candidates)
	if len(items) == 0 {
		return NewRecommendationsRes(StrategyNone, nil)
	}

	return NewRecommendationsRes(StrategyFallback, items)
}

// GetRecommendations ранжирует все сохранённые эмбеддинги по косинусной близости к исходной работе.
// Ноль результатов после гидрации возвращается как e.ErrNoRecommendations.
func (r *RecommendationUseCase) GetRecommendations(ctx context.Context, source *domain.Artwork) ([]domain.Recommendation, error) {
	const op = "RecommendationUseCase.GetRecommendations"

	if source == nil || source.ID == "" {
		return nil, e.Wrap(op, e.ErrArtworkIDRequired)
	}

	text := source.EmbeddingText()
	if text == "" {
		return nil, e.Wrap(op, e.ErrEmptyEmbeddingText)
	}

	sourceVector, err := r.embeddings.GetCachedEmbedding(ctx, NewEmbedTextReq(r.provider, text))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	records, err := r.embeddingRepo.GetAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	ranked, err := rankCandidates(source.ID, sourceVector, records)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(ranked) > r.limits.Candidates {
		ranked = ranked[:r.limits.Candidates]
	}

	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.ArtworkID
	}

	artworks, err := r.hydrate(ctx, ids)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]domain.Recommendation, 0, min(len(artworks), r.limits.Results))
	for i := range artworks {
		if len(result) == r.limits.Results {
			break
		}
		result = append(result, r.toRecommendation(ctx, &artworks[i]))
	}

	if len(result) == 0 {
		return nil, e.Wrap(op, e.ErrNoRecommendations)
	}

	return result, nil
}

// GetFallbackRecommendations раскладывает кандидатов по уровням: та же категория,
// затем тот же регион, затем остальные. Порядок внутри уровня сохраняется.
// Пустая категория или регион не совпадают ни с чем, даже с такими же пустыми.
// Пустой список кандидатов даёт пустой результат.
func (r *RecommendationUseCase) GetFallbackRecommendations(ctx context.Context, source *domain.Artwork, candidates []domain.Artwork) []domain.Recommendation {
	if source == nil {
		return []domain.Recommendation{}
	}

	var sameCategory, sameState, other []*domain.Artwork
	for i := range candidates {
		c := &candidates[i]
		switch {
		case c.ID == source.ID:
			continue
		case source.Category != "" && c.Category == source.Category:
			sameCategory = append(sameCategory, c)
		case source.State != "" && c.State == source.State:
			sameState = append(sameState, c)
		default:
			other = append(other, c)
		}
	}

	result := make([]domain.Recommendation, 0, r.limits.Results)
	for _, tier := range []struct {
		artworks []*domain.Artwork
		score    float64
	}{
		{sameCategory, domain.ScoreSameCategory},
		{sameState, domain.ScoreSameState},
		{other, domain.ScoreOther},
	} {
		for _, a := range tier.artworks {
			if len(result) == r.limits.Results {
				return result
			}
			result = append(result, r.toRecommendation(ctx, a).WithScore(tier.score))
		}
	}

	return result
}

// resolveSource возвращает присланную работу или загружает её по id.
func (r *RecommendationUseCase) resolveSource(ctx context.Context, req *RecommendReq) (*domain.Artwork, error) {
	if req.Artwork != nil {
		if req.Artwork.ID == "" {
			return nil, e.ErrArtworkIDRequired
		}
		return req.Artwork, nil
	}

	if req.ArtworkID == "" {
		return nil, e.ErrArtworkIDRequired
	}

	return r.artworkRepo.GetByID(ctx, req.ArtworkID)
}

// rankCandidates исключает исходную работу, считает близость и сортирует по убыванию.
// Равные оценки сохраняют порядок коллекции.
func rankCandidates(sourceID string, source []float32, records []domain.EmbeddingRecord) ([]scoredCandidate, error) {
	scored := make([]scoredCandidate, 0, len(records))
	for _, rec := range records {
		if rec.ArtworkID == sourceID {
			continue
		}

		score, err := vector.CosineSimilarity(source, rec.Vector)
		if err != nil {
			return nil, e.Wrap("artwork "+rec.ArtworkID, err)
		}

		scored = append(scored, scoredCandidate{ArtworkID: rec.ArtworkID, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}

// hydrate загружает работы в порядке ids: сначала из кэша, промахи — параллельными чтениями.
// Наличие работы решает хранилище: удалённые работы пропускаются, даже если остались в кэше.
func (r *RecommendationUseCase) hydrate(ctx context.Context, ids []string) ([]domain.Artwork, error) {
	cached, deleted, err := r.confirmCached(ctx, ids, r.getCachedArtworks(ctx, ids))
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		_, hit := cached[id]
		_, gone := deleted[id]
		if !hit && !gone {
			missing = append(missing, id)
		}
	}
	metrics.ArtworkCache.WithLabelValues("hit").Add(float64(len(cached)))
	metrics.ArtworkCache.WithLabelValues("miss").Add(float64(len(missing)))

	loaded := make([]*domain.Artwork, len(missing))
	if len(missing) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(hydrateConcurrency)
		for i, id := range missing {
			g.Go(func() error {
				artwork, err := r.artworkRepo.GetByID(gctx, id)
				if errors.Is(err, e.ErrArtworkNotFound) {
					r.logger.Debugf("Skipping stale embedding record. artwork_id: %s", id)
					return nil
				}
				if err != nil {
					return err
				}

				loaded[i] = artwork
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	fromStore := make(map[string]domain.Artwork, len(missing))
	toCache := make([]domain.Artwork, 0, len(missing))
	for _, a := range loaded {
		if a != nil {
			fromStore[a.ID] = *a
			toCache = append(toCache, *a)
		}
	}
	r.cacheInBackground(toCache)

	result := make([]domain.Artwork, 0, len(ids))
	for _, id := range ids {
		if a, ok := cached[id]; ok {
			result = append(result, a)
		} else if a, ok := fromStore[id]; ok {
			result = append(result, a)
		}
	}

	return result, nil
}

// confirmCached оставляет из кэша только работы, которые ещё есть в хранилище,
// возвращает id удалённых и фоново вычищает их из кэша.
func (r *RecommendationUseCase) confirmCached(
	ctx context.Context,
	ids []string,
	cached map[string]domain.Artwork,
) (map[string]domain.Artwork, map[string]struct{}, error) {
	if len(cached) == 0 {
		return cached, nil, nil
	}

	cachedIDs := make([]string, 0, len(cached))
	for _, id := range ids {
		if _, ok := cached[id]; ok {
			cachedIDs = append(cachedIDs, id)
		}
	}

	existing, err := r.artworkRepo.ExistingIDs(ctx, cachedIDs)
	if err != nil {
		return nil, nil, err
	}

	deleted := make(map[string]struct{})
	stale := make([]string, 0)
	for _, id := range cachedIDs {
		if _, ok := existing[id]; !ok {
			r.logger.Debugf("Skipping deleted artwork found in cache. artwork_id: %s", id)
			delete(cached, id)
			deleted[id] = struct{}{}
			stale = append(stale, id)
		}
	}
	r.evictInBackground(stale)

	return cached, deleted, nil
}

// getCachedArtworks читает работы из кэша. Ошибка кэша считается промахом.
func (r *RecommendationUseCase) getCachedArtworks(ctx context.Context, ids []string) map[string]domain.Artwork {
	if r.cacheRepo == nil || len(ids) == 0 {
		return nil
	}

	cached, err := r.cacheRepo.GetArtworks(ctx, ids)
	if err != nil {
		r.logger.Warnf("Artwork cache read failed: %v", err)
		return nil
	}

	return cached
}

// cacheInBackground фоново добавляет загруженные работы в кэш.
func (r *RecommendationUseCase) cacheInBackground(artworks []domain.Artwork) {
	if r.cacheRepo == nil || len(artworks) == 0 {
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := r.cacheRepo.SetArtworks(bgCtx, artworks); err != nil {
			r.logger.Warnf("Failed to cache artworks in background: %v", err)
		}
	}()
}

// evictInBackground фоново удаляет из кэша работы, которых больше нет в хранилище.
func (r *RecommendationUseCase) evictInBackground(ids []string) {
	if r.cacheRepo == nil || len(ids) == 0 {
		return
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := r.cacheRepo.DeleteArtworks(bgCtx, ids); err != nil {
			r.logger.Warnf("Failed to evict deleted artworks from cache: %v", err)
		}
	}()
}

// toRecommendation отображает работу в рекомендацию и подписывает ссылку на изображение.
func (r *RecommendationUseCase) toRecommendation(ctx context.Context, a *domain.Artwork) domain.Recommendation {
	rec := domain.NewRecommendation(a)
	if rec.Image != nil && r.imagesInfra != nil {
		resolved := r.imagesInfra.ResolveImage(ctx, *rec.Image)
		rec.Image = &resolved
	}

	return rec
}
