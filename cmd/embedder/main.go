package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/DRSN-tech/artwork-recommender/internal/app"
	config "github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
)

func main() {
	importFile := flag.String("import", "", "JSON file with artworks to upsert before rebuilding")
	flag.Parse()

	log := logger.NewSlogLogger()

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := app.RunEmbedder(ctx, cfg, log, *importFile)
	if err != nil {
		log.Errorf(err, "embedding rebuild failed")
		os.Exit(1)
	}

	log.Infof("embedding rebuild finished: total=%d processed=%d skipped=%d failed=%d published=%d",
		report.Total, report.Processed, len(report.Skipped), len(report.Failed), report.Published)
	if len(report.Failed) > 0 {
		os.Exit(2)
	}
}
