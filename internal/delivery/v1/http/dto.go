package http

import (
	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/shopspring/decimal"
)

const msgNoRecommendations = "no recommendations available"

// ArtworkRequest — работа в формате витрины.
type ArtworkRequest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	ArtistName  string           `json:"artistName"`
	Artist      string           `json:"artist"`
	State       string           `json:"state"`
	Tags        []string         `json:"tags"`
	Images      []string         `json:"images"`
	Image       string           `json:"image"`
	Price       *decimal.Decimal `json:"price"`
}

func (a *ArtworkRequest) ToDomain() *domain.Artwork {
	artwork := &domain.Artwork{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		ArtistName:  a.ArtistName,
		Artist:      a.Artist,
		State:       a.State,
		Tags:        a.Tags,
		Images:      a.Images,
		Image:       a.Image,
	}
	if a.Price != nil {
		artwork.Price = decimal.NewNullDecimal(*a.Price)
	}

	return artwork
}

type RecommendationResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	ArtistName *string          `json:"artistName"`
	Image      *string          `json:"image"`
	Price      *decimal.Decimal `json:"price"`
	Score      *float64         `json:"score,omitempty"`
}

type RecommendationsResponse struct {
	Strategy        string                   `json:"strategy"`
	Recommendations []RecommendationResponse `json:"recommendations"`
	Message         string                   `json:"message,omitempty"`
}

func NewRecommendationsResponse(res *usecase.RecommendationsRes) *RecommendationsResponse {
	items := make([]RecommendationResponse, 0, len(res.Items))
	for _, r := range res.Items {
		items = append(items, RecommendationResponse{
			ID:         r.ID,
			Name:       r.Name,
			ArtistName: r.ArtistName,
			Image:      r.Image,
			Price:      r.Price,
			Score:      r.Score,
		})
	}

	resp := &RecommendationsResponse{
		Strategy:        string(res.Strategy),
		Recommendations: items,
	}
	if len(items) == 0 {
		resp.Message = msgNoRecommendations
	}

	return resp
}

type RebuildResponse struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
	Published int      `json:"published"`
}

func NewRebuildResponse(report *usecase.RebuildReport) *RebuildResponse {
	return &RebuildResponse{
		Total:     report.Total,
		Processed: report.Processed,
		Skipped:   nonNil(report.Skipped),
		Failed:    nonNil(report.Failed),
		Published: report.Published,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
