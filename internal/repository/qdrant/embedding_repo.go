package qdrant

import (
	"context"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// Ключи payload точки.
const (
	payloadArtworkID = "artwork_id"
	payloadModel     = "model"
	payloadUpdatedAt = "updated_at"
)

// artworkNamespace — пространство имён для UUIDv5 идентификаторов точек.
var artworkNamespace = uuid.MustParse("6f0c3a52-3d4e-5b8a-9c1f-2a7e4d9b6c10")

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// GetAll читает всю коллекцию постранично через Scroll.
func (q *EmbeddingRepo) GetAll(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	var (
		records []domain.EmbeddingRecord
		offset  *qdrant.PointId
	)

	for {
		resp, err := q.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.cfg.QdrantCollectionName,
			Offset:         offset,
			Limit:          qdrant.PtrOf(q.cfg.ScrollPageSize),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		for _, point := range resp.GetResult() {
			if rec, ok := recordFromPoint(point); ok {
				records = append(records, rec)
			}
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			return records, nil
		}
	}
}

// Upsert сохраняет или перезаписывает векторы. Идентификатор точки выводится из id работы.
func (q *EmbeddingRepo) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(rec.ArtworkID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadArtworkID: rec.ArtworkID,
				payloadModel:     rec.Model,
				payloadUpdatedAt: rec.UpdatedAt.Unix(),
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PointID возвращает детерминированный UUIDv5 для id работы.
func PointID(artworkID string) string {
	return uuid.NewSHA1(artworkNamespace, []byte(artworkID)).String()
}

// recordFromPoint собирает запись из точки. Пропускаются только точки без artwork_id:
// запись без вектора возвращается как есть и отклоняется при ранжировании.
func recordFromPoint(point *qdrant.RetrievedPoint) (domain.EmbeddingRecord, bool) {
	payload := point.GetPayload()

	artworkID := payload[payloadArtworkID].GetStringValue()
	if artworkID == "" {
		return domain.EmbeddingRecord{}, false
	}

	return domain.EmbeddingRecord{
		ArtworkID: artworkID,
		Vector:    pointVector(point),
		Model:     payload[payloadModel].GetStringValue(),
		UpdatedAt: time.Unix(payload[payloadUpdatedAt].GetIntegerValue(), 0).UTC(),
	}, true
}

func pointVector(point *qdrant.RetrievedPoint) []float32 {
	v := point.GetVectors().GetVector()
	if dense := v.GetDense().GetData(); len(dense) > 0 {
		return dense
	}

	return v.GetData()
}
