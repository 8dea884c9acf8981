package converter

import (
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/shopspring/decimal"
)

// ArtworkConverter преобразует работы между domain и моделью кэша.
type ArtworkConverter interface {
	ToRedisModel(entity *domain.Artwork) *ArtworkRedisModel
	ToEntity(model *ArtworkRedisModel) *domain.Artwork
	ToArrRedisModel(entities []domain.Artwork) []ArtworkRedisModel
}

type ArtworkConverterImpl struct{}

func NewArtworkConverterImpl() *ArtworkConverterImpl {
	return &ArtworkConverterImpl{}
}

func (c *ArtworkConverterImpl) ToRedisModel(entity *domain.Artwork) *ArtworkRedisModel {
	if entity == nil {
		return nil
	}

	model := &ArtworkRedisModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Description: entity.Description,
		Category:    entity.Category,
		ArtistName:  entity.ArtistName,
		Artist:      entity.Artist,
		State:       entity.State,
		Tags:        entity.Tags,
		Images:      entity.Images,
		Image:       entity.Image,
	}
	if entity.Price.Valid {
		price := entity.Price.Decimal.String()
		model.Price = &price
	}

	return model
}

func (c *ArtworkConverterImpl) ToEntity(model *ArtworkRedisModel) *domain.Artwork {
	if model == nil {
		return nil
	}

	entity := &domain.Artwork{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Category:    model.Category,
		ArtistName:  model.ArtistName,
		Artist:      model.Artist,
		State:       model.State,
		Tags:        model.Tags,
		Images:      model.Images,
		Image:       model.Image,
	}
	if model.Price != nil {
		if d, err := decimal.NewFromString(*model.Price); err == nil {
			entity.Price = decimal.NewNullDecimal(d)
		}
	}

	return entity
}

func (c *ArtworkConverterImpl) ToArrRedisModel(entities []domain.Artwork) []ArtworkRedisModel {
	result := make([]ArtworkRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}
