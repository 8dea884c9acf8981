package mongodb

import (
	"testing"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func decodeArtwork(t *testing.T, raw bson.M) domain.Artwork {
	t.Helper()

	data, err := bson.Marshal(raw)
	require.NoError(t, err)

	var doc artworkDocument
	require.NoError(t, bson.Unmarshal(data, &doc))
	return doc.toDomain()
}

func TestArtworkDocument(t *testing.T) {
	t.Run("storefront fields", func(t *testing.T) {
		a := decodeArtwork(t, bson.M{
			"_id":        "A",
			"name":       "Blue Vase",
			"category":   "pottery",
			"artistName": "Asha",
			"state":      "Rajasthan",
			"tags":       bson.A{"handmade", "blue"},
			"images":     bson.A{"a.jpg"},
		})

		assert.Equal(t, "A", a.ID)
		assert.Equal(t, "Asha", a.ArtistName)
		assert.Equal(t, []string{"handmade", "blue"}, a.Tags)
		assert.False(t, a.Price.Valid)
	})

	prices := map[string]any{
		"double":  1499.5,
		"int32":   int32(1499),
		"int64":   int64(1499),
		"string":  "1499.50",
		"decimal": mustDecimal128(t, "1499.50"),
	}
	for name, price := range prices {
		t.Run("price as "+name, func(t *testing.T) {
			a := decodeArtwork(t, bson.M{"_id": "A", "price": price})

			require.True(t, a.Price.Valid)
			assert.True(t, a.Price.Decimal.GreaterThanOrEqual(decimal.NewFromInt(1499)))
			assert.True(t, a.Price.Decimal.LessThanOrEqual(decimal.RequireFromString("1499.5")))
		})
	}

	t.Run("unparseable price is absent", func(t *testing.T) {
		a := decodeArtwork(t, bson.M{"_id": "A", "price": "on request"})
		assert.False(t, a.Price.Valid)
	})
}

func TestArtworkWriteDocument(t *testing.T) {
	doc, err := newArtworkWriteDocument(&domain.Artwork{
		ID:    "A",
		Price: decimal.NewNullDecimal(decimal.RequireFromString("250.75")),
	})
	require.NoError(t, err)
	require.NotNil(t, doc.Price)
	assert.Equal(t, "250.75", doc.Price.String())

	doc, err = newArtworkWriteDocument(&domain.Artwork{ID: "B"})
	require.NoError(t, err)
	assert.Nil(t, doc.Price)
}

func TestEmbeddingDocument(t *testing.T) {
	t.Run("artwork id falls back to _id", func(t *testing.T) {
		doc := embeddingDocument{ID: "A", Vector: []float64{1, 0.5}}
		rec := doc.toDomain()

		assert.Equal(t, "A", rec.ArtworkID)
		assert.Equal(t, []float32{1, 0.5}, rec.Vector)
	})

	t.Run("storage key may differ from artwork id", func(t *testing.T) {
		doc := embeddingDocument{ID: "emb-1", ArtworkID: "A", Vector: []float64{1}}
		assert.Equal(t, "A", doc.toDomain().ArtworkID)
	})

	t.Run("documents without vector are kept", func(t *testing.T) {
		recs := recordsFromDocuments([]embeddingDocument{
			{ID: "A", Vector: []float64{1, 0}},
			{ID: "B"},
		})

		require.Len(t, recs, 2)
		assert.Equal(t, "B", recs[1].ArtworkID)
		assert.Empty(t, recs[1].Vector)
	})

	t.Run("write document keyed by artwork id", func(t *testing.T) {
		now := time.Now().UTC()
		doc := newEmbeddingDocument(&domain.EmbeddingRecord{ArtworkID: "A", Vector: []float32{0.25}, Model: "m", UpdatedAt: now})

		assert.Equal(t, "A", doc.ID)
		assert.Equal(t, []float64{0.25}, doc.Vector)
		assert.Equal(t, now, doc.UpdatedAt)
	})
}

func mustDecimal128(t *testing.T, s string) bson.Decimal128 {
	t.Helper()
	d, err := bson.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}
