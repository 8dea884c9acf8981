package minio

import (
	"context"
	"net/url"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo реализует репозиторий изображений поверх MinIO.
type ImageRepo struct {
	mc *minio.Client
}

func NewImageRepo(mc *minio.Client) *ImageRepo {
	return &ImageRepo{
		mc: mc,
	}
}

// PresignGet подписывает GET-ссылку на объект на время ttl.
func (i *ImageRepo) PresignGet(ctx context.Context, image *domain.Image, ttl time.Duration) (string, error) {
	u, err := i.mc.PresignedGetObject(ctx, image.Bucket, image.ObjectKey, ttl, url.Values{})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return u.String(), nil
}
