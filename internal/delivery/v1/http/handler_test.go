package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DRSN-tech/artwork-recommender/internal/domain"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recommendationUCMock struct {
	mock.Mock
}

func (m *recommendationUCMock) Recommend(ctx context.Context, req *usecase.RecommendReq) (*usecase.RecommendationsRes, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*usecase.RecommendationsRes)
	return res, args.Error(1)
}

func (m *recommendationUCMock) GetRecommendations(ctx context.Context, source *domain.Artwork) ([]domain.Recommendation, error) {
	args := m.Called(ctx, source)
	res, _ := args.Get(0).([]domain.Recommendation)
	return res, args.Error(1)
}

func (m *recommendationUCMock) GetFallbackRecommendations(ctx context.Context, source *domain.Artwork, candidates []domain.Artwork) []domain.Recommendation {
	args := m.Called(ctx, source, candidates)
	res, _ := args.Get(0).([]domain.Recommendation)
	return res
}

type jobUCMock struct {
	mock.Mock
}

func (m *jobUCMock) Rebuild(ctx context.Context) (*usecase.RebuildReport, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*usecase.RebuildReport)
	return res, args.Error(1)
}

func (m *jobUCMock) ImportArtworks(ctx context.Context, artworks []domain.Artwork) error {
	return m.Called(ctx, artworks).Error(0)
}

func newTestRouter(recUC *recommendationUCMock, jobUC *jobUCMock) http.Handler {
	mux := chi.NewRouter()
	NewRouter(mux, 0, logger.NewNop()).Init(recUC, jobUC)
	return mux
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetArtworkRecommendations(t *testing.T) {
	name := "Asha"
	price := decimal.RequireFromString("1499.5")

	t.Run("embedding strategy", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, usecase.NewRecommendReq("A", nil)).
			Return(usecase.NewRecommendationsRes(usecase.StrategyEmbedding, []domain.Recommendation{
				{ID: "B", Name: "Red Bowl", ArtistName: &name, Price: &price},
			}), nil).Once()

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodGet, "/api/v1/artworks/A/recommendations", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[map[string]any](t, rec)
		assert.Equal(t, "embedding", resp["strategy"])
		assert.NotContains(t, resp, "message")

		items := resp["recommendations"].([]any)
		require.Len(t, items, 1)
		item := items[0].(map[string]any)
		assert.Equal(t, "B", item["id"])
		assert.Equal(t, "Asha", item["artistName"])
		assert.Equal(t, "1499.5", item["price"])
		assert.Nil(t, item["image"])
		assert.NotContains(t, item, "score")
		recUC.AssertExpectations(t)
	})

	t.Run("fallback carries scores", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, mock.Anything).
			Return(usecase.NewRecommendationsRes(usecase.StrategyFallback, []domain.Recommendation{
				domain.Recommendation{ID: "B"}.WithScore(domain.ScoreSameCategory),
			}), nil).Once()

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodGet, "/api/v1/artworks/A/recommendations", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[RecommendationsResponse](t, rec)
		assert.Equal(t, "fallback", resp.Strategy)
		require.Len(t, resp.Recommendations, 1)
		require.NotNil(t, resp.Recommendations[0].Score)
		assert.Equal(t, 1.0, *resp.Recommendations[0].Score)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, mock.Anything).
			Return(usecase.NewRecommendationsRes(usecase.StrategyNone, nil), nil).Once()

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodGet, "/api/v1/artworks/A/recommendations", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[RecommendationsResponse](t, rec)
		assert.Equal(t, "none", resp.Strategy)
		assert.NotNil(t, resp.Recommendations)
		assert.Empty(t, resp.Recommendations)
		assert.Equal(t, "no recommendations available", resp.Message)
	})

	t.Run("unknown artwork", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, mock.Anything).
			Return(nil, e.Wrap("RecommendationUseCase.Recommend", e.ErrArtworkNotFound)).Once()

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodGet, "/api/v1/artworks/Z/recommendations", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeBody[ErrorResponse](t, rec)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, e.ErrArtworkNotFound.Error(), resp.Message)
	})

	t.Run("internal error", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodGet, "/api/v1/artworks/A/recommendations", "")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, e.ErrInternalServerError.Error(), decodeBody[ErrorResponse](t, rec).Message)
	})
}

func TestPostRecommendations(t *testing.T) {
	t.Run("posted artwork is passed through", func(t *testing.T) {
		recUC := new(recommendationUCMock)
		recUC.On("Recommend", mock.Anything, mock.MatchedBy(func(req *usecase.RecommendReq) bool {
			return req.ArtworkID == "" && req.Artwork != nil &&
				req.Artwork.ID == "A" &&
				req.Artwork.Category == "pottery" &&
				req.Artwork.Price.Valid &&
				req.Artwork.Price.Decimal.Equal(decimal.NewFromInt(250))
		})).Return(usecase.NewRecommendationsRes(usecase.StrategyFallback, nil), nil).Once()

		body := `{"id":"A","name":"Blue Vase","category":"pottery","tags":["handmade"],"price":250}`
		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodPost, "/api/v1/recommendations", body)

		assert.Equal(t, http.StatusOK, rec.Code)
		recUC.AssertExpectations(t)
	})

	t.Run("id is required", func(t *testing.T) {
		recUC := new(recommendationUCMock)

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodPost, "/api/v1/recommendations", `{"name":"Blue Vase"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, e.ErrArtworkIDRequired.Error(), decodeBody[ErrorResponse](t, rec).Message)
		recUC.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		recUC := new(recommendationUCMock)

		rec := serve(newTestRouter(recUC, new(jobUCMock)), http.MethodPost, "/api/v1/recommendations", `{"id":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, e.ErrStatusBadRequest.Error(), decodeBody[ErrorResponse](t, rec).Message)
	})
}

func TestRebuildEmbeddings(t *testing.T) {
	t.Run("report", func(t *testing.T) {
		jobUC := new(jobUCMock)
		jobUC.On("Rebuild", mock.Anything).Return(&usecase.RebuildReport{
			Total:     3,
			Processed: 2,
			Skipped:   []string{"C"},
			Published: 2,
		}, nil).Once()

		rec := serve(newTestRouter(new(recommendationUCMock), jobUC), http.MethodPost, "/api/v1/embeddings/rebuild", "")

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[RebuildResponse](t, rec)
		assert.Equal(t, 3, resp.Total)
		assert.Equal(t, 2, resp.Processed)
		assert.Equal(t, []string{"C"}, resp.Skipped)
		assert.Equal(t, []string{}, resp.Failed)
	})

	t.Run("provider not configured", func(t *testing.T) {
		jobUC := new(jobUCMock)
		jobUC.On("Rebuild", mock.Anything).Return(nil, e.Wrap("EmbeddingJobUseCase.Rebuild", e.ErrConfiguration)).Once()

		rec := serve(newTestRouter(new(recommendationUCMock), jobUC), http.MethodPost, "/api/v1/embeddings/rebuild", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newTestRouter(new(recommendationUCMock), new(jobUCMock))

	rec := serve(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, rec)["status"])

	rec = serve(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "artwork_recommender_http_requests_total")
}
