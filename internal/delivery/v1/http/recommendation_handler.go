package http

import (
	"errors"
	"net/http"

	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const maxArtworkBodySize = 1 << 20

type RecommendationHandler struct {
	recommendationUsecase usecase.RecommendationUC
	logger                logger.Logger
}

func NewRecommendationHandler(recommendationUsecase usecase.RecommendationUC, logger logger.Logger) *RecommendationHandler {
	return &RecommendationHandler{recommendationUsecase: recommendationUsecase, logger: logger}
}

// getArtworkRecommendations подбирает рекомендации для работы из каталога.
func (h *RecommendationHandler) getArtworkRecommendations(w http.ResponseWriter, r *http.Request) {
	req := usecase.NewRecommendReq(chi.URLParam(r, "id"), nil)
	h.recommend(w, r, req)
}

// postRecommendations подбирает рекомендации для работы, присланной витриной.
func (h *RecommendationHandler) postRecommendations(w http.ResponseWriter, r *http.Request) {
	var body ArtworkRequest
	if err := decodeJSON(w, r, maxArtworkBodySize, &body); err != nil {
		h.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	if body.ID == "" {
		WriteError(w, e.ErrArtworkIDRequired)
		return
	}

	h.recommend(w, r, usecase.NewRecommendReq("", body.ToDomain()))
}

func (h *RecommendationHandler) recommend(w http.ResponseWriter, r *http.Request, req *usecase.RecommendReq) {
	res, err := h.recommendationUsecase.Recommend(r.Context(), req)
	if err != nil {
		if !errors.Is(err, e.ErrArtworkNotFound) && !errors.Is(err, e.ErrArtworkIDRequired) {
			h.logger.Errorf(err, "recommendation request failed")
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewRecommendationsResponse(res))
}
