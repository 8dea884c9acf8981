package redis

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/redis/converter"
	"github.com/DRSN-tech/artwork-recommender/pkg/clients"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/jimlawless/whereami"
)

type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ArtworkConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ArtworkConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetArtworks возвращает закэшированные работы по ID, пропуская промахи и битые записи.
func (r *CacheRepo) GetArtworks(ctx context.Context, ids []string) (map[string]domain.Artwork, error) {
	if len(ids) == 0 {
		return map[string]domain.Artwork{}, nil
	}

	keys := r.buildArtworkCacheKeys(ids)

	values, err := r.client.Client.MGet(ctx, keys...).Result()
	if err != nil {
		r.logger.Warnf("Redis MGET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[string]domain.Artwork, len(values))
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			r.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}

		if data == nil {
			continue // cache miss
		}

		model, err := r.unmarshalArtworkFromCache(data)
		if err != nil {
			r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		if model.ID != ids[i] {
			r.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", ids[i], model.ID)
			if err := r.client.Client.Del(ctx, keys[i]).Err(); err != nil {
				r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
			}
			continue // cache miss
		}
		result[ids[i]] = *r.conv.ToEntity(model)
	}

	return result, nil
}

// SetArtworks кэширует несколько работ одним pipeline с TTL из конфигурации.
// Ошибки сериализации и записи только логируются.
func (r *CacheRepo) SetArtworks(ctx context.Context, artworks []domain.Artwork) error {
	if len(artworks) == 0 {
		return nil
	}

	models := r.conv.ToArrRedisModel(artworks)

	pipeline := r.client.Client.Pipeline()
	for _, model := range models {
		data, err := json.Marshal(model)
		if err != nil {
			r.logger.Warnf("Failed to marshal artwork for caching (Artwork ID: %s): %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		pipeline.Set(ctx, r.artworkKey(model.ID), data, r.cfg.ArtworkTTL)
	}

	if _, err := pipeline.Exec(ctx); err != nil {
		r.logger.Warnf("Cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteArtworks удаляет работы из кэша по ID
func (r *CacheRepo) DeleteArtworks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.client.Client.Del(ctx, r.buildArtworkCacheKeys(ids)...).Err(); err != nil {
		r.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

func (r *CacheRepo) unmarshalArtworkFromCache(data []byte) (*converter.ArtworkRedisModel, error) {
	var model converter.ArtworkRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

func (r *CacheRepo) buildArtworkCacheKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.artworkKey(id)
	}

	return keys
}

// artworkKey возвращает Redis-ключ для одной работы
func (r *CacheRepo) artworkKey(id string) string {
	return "artwork:" + id
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
