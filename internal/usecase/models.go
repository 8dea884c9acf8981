package usecase

import (
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
)

// RECOMMENDATION USECASE

// Strategy — стратегия, которой получены рекомендации.
type Strategy string

const (
	StrategyEmbedding Strategy = "embedding"
	StrategyFallback  Strategy = "fallback"
	StrategyNone      Strategy = "none"
)

// RecommendReq — запрос рекомендаций. Artwork имеет приоритет над ArtworkID.
type RecommendReq struct {
	ArtworkID string
	Artwork   *domain.Artwork
}

// RecommendationsRes — результат подбора рекомендаций.
type RecommendationsRes struct {
	Strategy Strategy
	Items    []domain.Recommendation
}

// ProviderSettings — параметры модели эмбеддингов из конфигурации процесса.
type ProviderSettings struct {
	ProjectID string
	Location  string
	Model     string
}

// Limits ограничивает шорт-лист кандидатов и размер ответа.
type Limits struct {
	Candidates int
	Results    int
}

// scoredCandidate — кандидат после подсчёта косинусной близости.
type scoredCandidate struct {
	ArtworkID string
	Score     float64
}

// EMBEDDING JOB

// RebuildReport — итог пересборки эмбеддингов.
type RebuildReport struct {
	Total     int
	Processed int
	Skipped   []string // работы с пустым текстом
	Failed    []string // работы, для которых провайдер вернул ошибку
	Published int
}

// INFRASTUCTURE

// EmbedTextReq — запрос эмбеддинга одного текста.
type EmbedTextReq struct {
	ProjectID string
	Location  string
	Model     string
	Text      string
}

// WriteMessageReq — событие об обновлении эмбеддинга работы.
type WriteMessageReq struct {
	ArtworkID  string
	Model      string
	Dimensions int
	UpdatedAt  time.Time
}

// MAPPERS

func NewRecommendReq(artworkID string, artwork *domain.Artwork) *RecommendReq {
	return &RecommendReq{
		ArtworkID: artworkID,
		Artwork:   artwork,
	}
}

func NewRecommendationsRes(strategy Strategy, items []domain.Recommendation) *RecommendationsRes {
	if items == nil {
		items = []domain.Recommendation{}
	}

	return &RecommendationsRes{
		Strategy: strategy,
		Items:    items,
	}
}

func NewEmbedTextReq(settings ProviderSettings, text string) *EmbedTextReq {
	return &EmbedTextReq{
		ProjectID: settings.ProjectID,
		Location:  settings.Location,
		Model:     settings.Model,
		Text:      text,
	}
}

func NewWriteMessageReq(record *domain.EmbeddingRecord) *WriteMessageReq {
	return &WriteMessageReq{
		ArtworkID:  record.ArtworkID,
		Model:      record.Model,
		Dimensions: len(record.Vector),
		UpdatedAt:  record.UpdatedAt,
	}
}
