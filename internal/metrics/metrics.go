// Package metrics содержит метрики Prometheus сервиса рекомендаций.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "artwork_recommender"

var (
	// Провайдер эмбеддингов
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_requests_total",
		Help:      "Embedding provider calls by result (ok, error, rejected).",
	}, []string{"result"})

	EmbeddingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "embedding_duration_seconds",
		Help:      "Duration of embedding provider calls including retries.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
	})

	EmbeddingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_cache_total",
		Help:      "In-process embedding cache lookups by result (hit, miss).",
	}, []string{"result"})

	EmbeddingRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_retries_total",
		Help:      "Embedding provider requests retried by the transport.",
	})

	// Рекомендации
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Recommendation responses by strategy (embedding, fallback, none).",
	}, []string{"strategy"})

	RecommendationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "Duration of recommendation requests by strategy.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})

	ArtworkCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "artwork_cache_total",
		Help:      "Artwork hydration cache lookups by result (hit, miss).",
	}, []string{"result"})

	// Пересборка эмбеддингов
	RebuildArtworks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rebuild_artworks_total",
		Help:      "Artworks handled by the embedding rebuild job by result (processed, skipped, failed).",
	}, []string{"result"})

	// HTTP
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
