package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"quartr-fetch/pkg/config"
	"quartr-fetch/pkg/meta"
	"quartr-fetch/pkg/transcripts"
)

func main() {
	out := flag.String("out", "", "Base directory for output files (defaults to QUARTR_DATA_DIR or the working directory)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		log.Fatalf("Usage: transcripttext [-out dir] <ticker> <path-to-meta-json>")
	}
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	metaPath := args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	baseDir := cfg.DataDir
	if *out != "" {
		baseDir = *out
	}

	doc, err := meta.LoadRecord(metaPath)
	if err != nil {
		log.Fatalf("Failed to load metadata record: %v", err)
	}

	service := transcripts.New(transcripts.Config{APIKey: cfg.APIKey, BaseDir: baseDir})

	txtPath, err := service.WriteText(context.Background(), ticker, doc)
	if err != nil {
		log.Fatalf("Failed to write transcript text: %v", err)
	}
	fmt.Printf("Wrote: %s\n", txtPath)
}
