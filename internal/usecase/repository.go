package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
)

type ArtworkRepository interface {
	// GetByID возвращает e.ErrArtworkNotFound, если работы нет.
	GetByID(ctx context.Context, id string) (*domain.Artwork, error)
	GetAll(ctx context.Context) ([]domain.Artwork, error)
	// ExistingIDs возвращает те id из списка, для которых работа есть в хранилище.
	ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	Upsert(ctx context.Context, artworks []domain.Artwork) error
}

type EmbeddingRepository interface {
	GetAll(ctx context.Context) ([]domain.EmbeddingRecord, error)
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) error
}

type ArtworkCacheRepository interface {
	GetArtworks(ctx context.Context, ids []string) (map[string]domain.Artwork, error)
	SetArtworks(ctx context.Context, artworks []domain.Artwork) error
	DeleteArtworks(ctx context.Context, ids []string) error
}

type ImageRepository interface {
	// PresignGet возвращает временную ссылку на объект.
	PresignGet(ctx context.Context, image *domain.Image, ttl time.Duration) (string, error)
}
