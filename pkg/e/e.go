package e

import "fmt"

var (
	// Конфигурация
	ErrConfiguration        = fmt.Errorf("embedding provider is not configured")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")

	// Ошибки провайдера эмбеддингов
	ErrProvider             = fmt.Errorf("embedding provider request failed")
	ErrUnrecognizedResponse = fmt.Errorf("unrecognized embedding response shape")

	// Внутренние ошибки с векторами
	ErrInvalidVector        = fmt.Errorf("invalid vector")
	ErrVectorEmbeddingEmpty = fmt.Errorf("vector embedding is empty")

	// Рекомендации
	ErrNoRecommendations  = fmt.Errorf("no recommendations produced")
	ErrEmptyEmbeddingText = fmt.Errorf("artwork has no text to embed")

	// 400 / 404
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrArtworkIDRequired   = fmt.Errorf("artwork id is required")
	ErrArtworkNotFound     = fmt.Errorf("artwork not found")
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
