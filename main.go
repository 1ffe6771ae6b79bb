package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"quartr-fetch/pkg/config"
	"quartr-fetch/pkg/manager"
	"quartr-fetch/pkg/meta"
	"quartr-fetch/pkg/quartr"
	"quartr-fetch/pkg/slides"
	"quartr-fetch/pkg/transcripts"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Configuration error", zap.Error(err))
	}

	// Default watchlist, override with positional ticker args
	companies := []string{"MSFT"}
	if len(os.Args) > 1 {
		companies = os.Args[1:]
	}

	client := quartr.New(quartr.Config{APIKey: cfg.APIKey})

	m, err := manager.New(manager.Config{
		Meta:        meta.New(meta.Config{Client: client, BaseDir: cfg.DataDir}),
		Transcripts: transcripts.New(transcripts.Config{APIKey: cfg.APIKey, BaseDir: cfg.DataDir}),
		Slides:      slides.New(slides.Config{Client: client, APIKey: cfg.APIKey, BaseDir: cfg.DataDir}),
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Manager setup failed", zap.Error(err))
	}

	summaries, err := m.Run(context.Background(), companies)
	if err != nil {
		logger.Fatal("Pipeline run failed", zap.Error(err))
	}

	for _, s := range summaries {
		fmt.Printf("Done %s: processed=%d, skipped=%d\n", s.Ticker, s.Processed, s.Skipped)
	}
}
