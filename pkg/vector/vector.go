// Package vector содержит чистые функции для работы с векторами эмбеддингов.
package vector

import (
	"encoding/base64"
	"fmt"
	"math"

	"github.com/DRSN-tech/artwork-recommender/pkg/e"
)

// Epsilon добавляется к знаменателю, чтобы нулевой вектор не давал деление на ноль.
const Epsilon = 1e-6

// CosineSimilarity считает dot(a,b) / (|a|*|b| + Epsilon).
// Векторы должны быть непустыми и одной длины, иначе возвращается e.ErrInvalidVector.
// Результат не обрезается до [-1, 1].
func CosineSimilarity(a, b []float32) (float64, error) {
	if a == nil || b == nil || len(a) == 0 || len(b) == 0 {
		return 0, e.Wrap("empty vector", e.ErrInvalidVector)
	}
	if len(a) != len(b) {
		return 0, e.Wrap(fmt.Sprintf("length mismatch %d != %d", len(a), len(b)), e.ErrInvalidVector)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + Epsilon), nil
}

// CacheKey возвращает обратимый ключ кэша для текста (base64 от UTF-8 байт).
// Разные тексты никогда не дают один ключ.
func CacheKey(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}
