package vector

import (
	"encoding/base64"
	"testing"

	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2][]float32{
			{{1, 2, 3}, {4, 5, 6}},
			{{-1, 0.5, 2}, {3, -2, 0.25}},
			{{0, 0, 1}, {1, 0, 0}},
		}
		for _, p := range pairs {
			ab, err := CosineSimilarity(p[0], p[1])
			require.NoError(t, err)
			ba, err := CosineSimilarity(p[1], p[0])
			require.NoError(t, err)
			assert.Equal(t, ab, ba)
		}
	})

	t.Run("self score is one", func(t *testing.T) {
		for _, v := range [][]float32{{1, 0, 0}, {0.3, -0.7, 2.5}, {100, 200}} {
			s, err := CosineSimilarity(v, v)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, s, 1e-5)
		}
	})

	t.Run("orthogonal is zero", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, s, 1e-9)
	})

	t.Run("opposite is minus one", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{1, 2}, []float32{-1, -2})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, s, 1e-5)
	})

	t.Run("zero vector does not divide by zero", func(t *testing.T) {
		s, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 0.0, s)
	})

	t.Run("mismatched length", func(t *testing.T) {
		_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.ErrorIs(t, err, e.ErrInvalidVector)
	})

	t.Run("empty or nil", func(t *testing.T) {
		_, err := CosineSimilarity(nil, []float32{1})
		assert.ErrorIs(t, err, e.ErrInvalidVector)

		_, err = CosineSimilarity([]float32{}, []float32{})
		assert.ErrorIs(t, err, e.ErrInvalidVector)
	})
}

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, CacheKey("Blue Vase pottery"), CacheKey("Blue Vase pottery"))
	})

	t.Run("reversible", func(t *testing.T) {
		text := "Madhubani painting — मधुबनी"
		raw, err := base64.StdEncoding.DecodeString(CacheKey(text))
		require.NoError(t, err)
		assert.Equal(t, text, string(raw))
	})

	t.Run("distinct texts give distinct keys", func(t *testing.T) {
		assert.NotEqual(t, CacheKey("a"), CacheKey("a "))
		assert.NotEqual(t, CacheKey(""), CacheKey(" "))
	})
}
