package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Artwork описывает работу мастера в каталоге. Для рекомендаций сущность только читается.
type Artwork struct {
	ID          string
	Name        string
	Description string
	Category    string
	ArtistName  string
	Artist      string // устаревшее поле, используется только для отображения
	State       string // регион
	Tags        []string
	Images      []string // первое изображение основное
	Image       string   // устаревшее одиночное изображение
	Price       decimal.NullDecimal
}

// EmbeddingText собирает составной текст для эмбеддинга: название, описание, категория,
// автор (artistName, иначе устаревшее artist), регион и теги через пробел. Пустые поля пропускаются.
func (a *Artwork) EmbeddingText() string {
	artist := a.ArtistName
	if artist == "" {
		artist = a.Artist
	}

	parts := make([]string, 0, 6)
	for _, v := range []string{
		a.Name,
		a.Description,
		a.Category,
		artist,
		a.State,
		strings.Join(nonEmpty(a.Tags), " "),
	} {
		if v != "" {
			parts = append(parts, v)
		}
	}

	return strings.Join(parts, " ")
}

// DisplayArtist возвращает имя автора с откатом на устаревшее поле artist.
func (a *Artwork) DisplayArtist() *string {
	switch {
	case a.ArtistName != "":
		return &a.ArtistName
	case a.Artist != "":
		return &a.Artist
	default:
		return nil
	}
}

// PrimaryImage возвращает первое изображение из images, иначе image.
func (a *Artwork) PrimaryImage() *string {
	if len(a.Images) > 0 && a.Images[0] != "" {
		return &a.Images[0]
	}
	if a.Image != "" {
		return &a.Image
	}

	return nil
}

// DisplayPrice возвращает цену или nil, если она не задана.
func (a *Artwork) DisplayPrice() *decimal.Decimal {
	if !a.Price.Valid {
		return nil
	}
	p := a.Price.Decimal
	return &p
}

func nonEmpty(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			res = append(res, v)
		}
	}

	return res
}
