package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/DRSN-tech/artwork-recommender/internal/metrics"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router    *chi.Mux
	logger    logger.Logger
	rateLimit int
}

func NewRouter(router *chi.Mux, rateLimit int, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger, rateLimit: rateLimit}
}

func (r *Router) Init(recUC usecase.RecommendationUC, jobUC usecase.EmbeddingJobUC) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(metricsMiddleware)

	r.router.Get("/healthz", healthz)
	r.router.Handle("/metrics", promhttp.Handler())

	r.router.Route("/api/v1", func(v1 chi.Router) {
		if r.rateLimit > 0 {
			v1.Use(httprate.LimitByIP(r.rateLimit, time.Minute))
		}

		registerRecommendationRoutes(v1, NewRecommendationHandler(recUC, r.logger))
		registerEmbeddingRoutes(v1, NewEmbeddingHandler(jobUC, r.logger))
	})
}

func registerRecommendationRoutes(router chi.Router, h *RecommendationHandler) {
	router.Get("/artworks/{id}/recommendations", h.getArtworkRecommendations)
	router.Post("/recommendations", h.postRecommendations)
}

func registerEmbeddingRoutes(router chi.Router, h *EmbeddingHandler) {
	router.Route("/embeddings", func(er chi.Router) {
		er.Post("/rebuild", h.rebuildEmbeddings)
	})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// metricsMiddleware считает запросы по шаблону маршрута, а не по сырому пути.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
