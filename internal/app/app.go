package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/artwork-recommender/internal/cfg"
	v1Http "github.com/DRSN-tech/artwork-recommender/internal/delivery/v1/http"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	deps    *Deps
	httpSrv *v1Http.Server
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	const op = "App.NewApp"

	deps, err := NewDeps(context.Background(), cfg, logger)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	recUC := usecase.NewRecommendationUC(
		deps.ArtworkRepo,
		deps.EmbeddingRepo,
		deps.CacheRepo,
		deps.Embeddings,
		deps.Images,
		deps.Provider,
		usecase.Limits{
			Candidates: cfg.Recommend.CandidateLimit,
			Results:    cfg.Recommend.ResultLimit,
		},
		logger,
	)

	jobUC := usecase.NewEmbeddingJobUC(
		deps.ArtworkRepo,
		deps.EmbeddingRepo,
		deps.CacheRepo,
		deps.Embeddings,
		deps.Publisher,
		deps.Provider,
		cfg.Embedding.MaxConcurrent,
		logger,
	)

	r := chi.NewRouter()
	v1Http.NewRouter(r, cfg.Http.RateLimit, logger).Init(recUC, jobUC)

	return &App{
		cfg:     cfg,
		logger:  logger,
		deps:    deps,
		httpSrv: v1Http.NewServer(r, cfg.Http),
	}, nil
}

// Run обслуживает HTTP до сигнала или фатальной ошибки сервера, затем закрывает ресурсы.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := a.deps.Closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resources closed with errors: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}
