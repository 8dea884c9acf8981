package redis

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/redis/converter"
	"github.com/DRSN-tech/artwork-recommender/pkg/clients"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCacheRepo(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisCfg := &cfg.RedisCfg{Addr: mr.Addr(), ArtworkTTL: time.Minute}
	client := clients.NewRedisClient(redisCfg)
	t.Cleanup(func() { _ = client.Client.Close() })

	return NewCacheRepo(client, converter.NewArtworkConverterImpl(), redisCfg, logger.NewNop()), mr
}

func TestCacheRepo_SetAndGet(t *testing.T) {
	repo, mr := setupCacheRepo(t)
	ctx := context.Background()

	artworks := []domain.Artwork{
		{
			ID:         "A",
			Name:       "Blue Vase",
			Category:   "pottery",
			ArtistName: "Asha",
			Tags:       []string{"handmade"},
			Images:     []string{"a.jpg"},
			Price:      decimal.NewNullDecimal(decimal.RequireFromString("1499.50")),
		},
		{ID: "B", Name: "Red Bowl"},
	}
	require.NoError(t, repo.SetArtworks(ctx, artworks))
	assert.True(t, mr.Exists("artwork:A"))

	got, err := repo.GetArtworks(ctx, []string{"A", "missing", "B"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got["A"]
	assert.Equal(t, "Blue Vase", a.Name)
	assert.Equal(t, []string{"handmade"}, a.Tags)
	require.True(t, a.Price.Valid)
	assert.True(t, a.Price.Decimal.Equal(decimal.RequireFromString("1499.5")))
	assert.False(t, got["B"].Price.Valid)
}

func TestCacheRepo_TTL(t *testing.T) {
	repo, mr := setupCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetArtworks(ctx, []domain.Artwork{{ID: "A"}}))
	assert.Equal(t, time.Minute, mr.TTL("artwork:A"))

	mr.FastForward(2 * time.Minute)

	got, err := repo.GetArtworks(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCacheRepo_CorruptEntries(t *testing.T) {
	repo, mr := setupCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("artwork:A", "not json"))
	require.NoError(t, mr.Set("artwork:B", `{"id":"C"}`))

	got, err := repo.GetArtworks(ctx, []string{"A", "B"})
	require.NoError(t, err)
	assert.Empty(t, got)
	// запись с чужим id удаляется
	assert.False(t, mr.Exists("artwork:B"))
}

func TestCacheRepo_Delete(t *testing.T) {
	repo, mr := setupCacheRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SetArtworks(ctx, []domain.Artwork{{ID: "A"}, {ID: "B"}}))
	require.NoError(t, repo.DeleteArtworks(ctx, []string{"A"}))

	assert.False(t, mr.Exists("artwork:A"))
	assert.True(t, mr.Exists("artwork:B"))
}

func TestCacheRepo_Unavailable(t *testing.T) {
	repo, mr := setupCacheRepo(t)
	mr.Close()

	_, err := repo.GetArtworks(context.Background(), []string{"A"})
	assert.Error(t, err)
}

func TestCacheRepo_EmptyInput(t *testing.T) {
	repo, _ := setupCacheRepo(t)

	got, err := repo.GetArtworks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, repo.SetArtworks(context.Background(), nil))
	assert.NoError(t, repo.DeleteArtworks(context.Background(), nil))
}
