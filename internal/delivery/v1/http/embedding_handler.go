package http

import (
	"net/http"

	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
)

type EmbeddingHandler struct {
	jobUsecase usecase.EmbeddingJobUC
	logger     logger.Logger
}

func NewEmbeddingHandler(jobUsecase usecase.EmbeddingJobUC, logger logger.Logger) *EmbeddingHandler {
	return &EmbeddingHandler{jobUsecase: jobUsecase, logger: logger}
}

// rebuildEmbeddings синхронно пересобирает эмбеддинги всего каталога.
func (h *EmbeddingHandler) rebuildEmbeddings(w http.ResponseWriter, r *http.Request) {
	report, err := h.jobUsecase.Rebuild(r.Context())
	if err != nil {
		h.logger.Errorf(err, "embedding rebuild failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewRebuildResponse(report))
}
