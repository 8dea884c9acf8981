package mongodb

import (
	"context"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EmbeddingRepo хранит векторы работ в коллекции MongoDB.
type EmbeddingRepo struct {
	coll *mongo.Collection
}

func NewEmbeddingRepo(coll *mongo.Collection) *EmbeddingRepo {
	return &EmbeddingRepo{coll: coll}
}

// GetAll читает коллекцию целиком. Документы без вектора не отбрасываются:
// их отклоняет ранжирование как повреждённые данные.
func (r *EmbeddingRepo) GetAll(ctx context.Context) ([]domain.EmbeddingRecord, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var docs []embeddingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return recordsFromDocuments(docs), nil
}

// Upsert перезаписывает записи по id работы.
func (r *EmbeddingRepo) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(records))
	for i := range records {
		doc := newEmbeddingDocument(&records[i])
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func recordsFromDocuments(docs []embeddingDocument) []domain.EmbeddingRecord {
	result := make([]domain.EmbeddingRecord, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}

	return result
}
