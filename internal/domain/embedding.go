package domain

import "time"

// EmbeddingRecord хранит вектор одной работы. ArtworkID — ключ связи с Artwork.
// Размерность одинакова для всех записей одной модели.
type EmbeddingRecord struct {
	ArtworkID string
	Vector    []float32
	Model     string
	UpdatedAt time.Time
}

func NewEmbeddingRecord(artworkID string, vector []float32, model string) *EmbeddingRecord {
	return &EmbeddingRecord{
		ArtworkID: artworkID,
		Vector:    vector,
		Model:     model,
		UpdatedAt: time.Now().UTC(),
	}
}
