package usecase

import (
	"context"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
)

type RecommendationUC interface {
	Recommend(ctx context.Context, req *RecommendReq) (*RecommendationsRes, error)
	GetRecommendations(ctx context.Context, source *domain.Artwork) ([]domain.Recommendation, error)
	GetFallbackRecommendations(ctx context.Context, source *domain.Artwork, candidates []domain.Artwork) []domain.Recommendation
}

type EmbeddingJobUC interface {
	Rebuild(ctx context.Context) (*RebuildReport, error)
	ImportArtworks(ctx context.Context, artworks []domain.Artwork) error
}
