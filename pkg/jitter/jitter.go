// Package jitter считает задержки повторов с экспоненциальным ростом и случайной добавкой,
// чтобы клиенты не повторяли запросы к провайдеру синхронно.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает d с добавкой из диапазона [0, d*jitterFactor].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return d
	}

	return d + time.Duration(rand.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff возвращает задержку перед повтором номер attempt (с нуля):
// base*2^attempt с джиттером, но не больше max.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	backoff := base
	for i := 0; i < attempt && backoff < max; i++ {
		backoff *= 2
	}
	if backoff > max {
		backoff = max
	}

	return min(Duration(backoff, jitterFactor), max)
}
