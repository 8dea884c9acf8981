package mongodb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ArtworkRepo реализует репозиторий работ поверх коллекции MongoDB.
type ArtworkRepo struct {
	coll *mongo.Collection
}

func NewArtworkRepo(coll *mongo.Collection) *ArtworkRepo {
	return &ArtworkRepo{coll: coll}
}

// GetByID возвращает работу по _id или e.ErrArtworkNotFound.
func (a *ArtworkRepo) GetByID(ctx context.Context, id string) (*domain.Artwork, error) {
	var doc artworkDocument
	err := a.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, e.Wrap(id, e.ErrArtworkNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	artwork := doc.toDomain()
	return &artwork, nil
}

// GetAll возвращает все работы в естественном порядке коллекции.
func (a *ArtworkRepo) GetAll(ctx context.Context) ([]domain.Artwork, error) {
	cur, err := a.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var docs []artworkDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make([]domain.Artwork, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}

	return result, nil
}

// ExistingIDs возвращает подмножество ids, для которых есть документ.
func (a *ArtworkRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	cur, err := a.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	for _, d := range docs {
		existing[d.ID] = struct{}{}
	}

	return existing, nil
}

// Upsert заменяет документы по _id, создавая отсутствующие.
func (a *ArtworkRepo) Upsert(ctx context.Context, artworks []domain.Artwork) error {
	if len(artworks) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(artworks))
	for i := range artworks {
		doc, err := newArtworkWriteDocument(&artworks[i])
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	if _, err := a.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
