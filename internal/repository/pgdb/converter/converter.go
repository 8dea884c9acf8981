package converter

import "github.com/DRSN-tech/artwork-recommender/internal/domain"

// ArtworkConverter преобразует сущности Artwork между domain и моделью PostgreSQL.
type ArtworkConverter interface {
	ToModel(entity *domain.Artwork) *ArtworkModel
	ToEntity(model *ArtworkModel) *domain.Artwork
	ToArrEntity(models []ArtworkModel) []domain.Artwork
}

type ArtworkConverterImpl struct{}

func NewArtworkConverterImpl() *ArtworkConverterImpl {
	return &ArtworkConverterImpl{}
}

func (c *ArtworkConverterImpl) ToModel(entity *domain.Artwork) *ArtworkModel {
	if entity == nil {
		return nil
	}

	return &ArtworkModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Description: entity.Description,
		Category:    entity.Category,
		ArtistName:  entity.ArtistName,
		Artist:      entity.Artist,
		State:       entity.State,
		Tags:        nonNil(entity.Tags),
		Images:      nonNil(entity.Images),
		Image:       entity.Image,
		Price:       entity.Price,
	}
}

func (c *ArtworkConverterImpl) ToEntity(model *ArtworkModel) *domain.Artwork {
	if model == nil {
		return nil
	}

	return &domain.Artwork{
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
		Price:       model.Price,
	}
}

func (c *ArtworkConverterImpl) ToArrEntity(models []ArtworkModel) []domain.Artwork {
	result := make([]domain.Artwork, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

// nonNil заменяет nil на пустой срез: колонки text[] объявлены NOT NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
