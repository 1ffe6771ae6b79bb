package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"quartr-fetch/pkg/config"
	"quartr-fetch/pkg/meta"
	"quartr-fetch/pkg/quartr"
)

func main() {
	var (
		ticker = flag.String("ticker", "AAPL", "Company ticker to index earnings-call transcripts for")
		out    = flag.String("out", "", "Base directory for output files (defaults to QUARTR_DATA_DIR or the working directory)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	baseDir := cfg.DataDir
	if *out != "" {
		baseDir = *out
	}

	ctx := context.Background()

	client := quartr.New(quartr.Config{APIKey: cfg.APIKey})
	service := meta.New(meta.Config{Client: client, BaseDir: baseDir})

	symbol := strings.ToUpper(strings.TrimSpace(*ticker))
	indexPath, err := service.BuildMeta(ctx, symbol)
	if err != nil {
		log.Fatalf("Failed to build transcript metadata: %v", err)
	}

	fmt.Printf("Ticker: %s\n", symbol)
	fmt.Printf("Index written: %s\n", indexPath)
}
