package domain

import "github.com/shopspring/decimal"

// Оценки уровней запасного ранжирования.
const (
	ScoreSameCategory = 1.0
	ScoreSameState    = 0.8
	ScoreOther        = 0.5
)

// Recommendation — одна рекомендованная работа в ответе.
// Score заполняется только запасным ранжированием.
type Recommendation struct {
	ID         string
	Name       string
	ArtistName *string
	Image      *string
	Price      *decimal.Decimal
	Score      *float64
}

// NewRecommendation отображает работу в рекомендацию без оценки.
func NewRecommendation(a *Artwork) Recommendation {
	return Recommendation{
		ID:         a.ID,
		Name:       a.Name,
		ArtistName: a.DisplayArtist(),
		Image:      a.PrimaryImage(),
		Price:      a.DisplayPrice(),
	}
}

// WithScore возвращает копию рекомендации с оценкой.
func (r Recommendation) WithScore(score float64) Recommendation {
	r.Score = &score
	return r
}
