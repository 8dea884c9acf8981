package minio

import (
	"context"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/infrastructure"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
)

const defaultPresignTTL = time.Hour

// MinioInfrastructure выдаёт клиентам ссылки на изображения работ из MinIO.
type MinioInfrastructure struct {
	imageRepo usecase.ImageRepository
	bucket    string
	ttl       time.Duration
	logger    logger.Logger
}

func NewMinioInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *MinioInfrastructure {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	return &MinioInfrastructure{
		imageRepo: imageRepo,
		bucket:    cfg.BucketName,
		ttl:       ttl,
		logger:    logger,
	}
}

// ResolveImage подписывает ссылку на объект. Абсолютные URL возвращаются как есть,
// при ошибке подписи клиент получает исходную ссылку.
func (m *MinioInfrastructure) ResolveImage(ctx context.Context, ref string) string {
	const op = "MinioInfrastructure.ResolveImage"
	if ref == "" || domain.IsExternalURL(ref) {
		return ref
	}

	key := infrastructure.ObjectKeyFromRef(m.bucket, ref)
	if key == "" {
		return ref
	}

	link, err := m.imageRepo.PresignGet(ctx, domain.NewImage(m.bucket, key), m.ttl)
	if err != nil {
		m.logger.Warnf("%s: presign failed for %s: %v", op, key, err)
		return ref
	}

	return link
}
