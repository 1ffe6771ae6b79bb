// Package manager coordinates the full per-ticker pipeline: metadata
// indexing, transcript text extraction and slide-deck text extraction.
package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/meta"
)

// MetaBuilder writes the transcript metadata index for a ticker and returns
// the index path.
type MetaBuilder interface {
	BuildMeta(ctx context.Context, ticker string) (string, error)
}

// TranscriptWriter turns one transcript metadata record into a text file.
type TranscriptWriter interface {
	WriteText(ctx context.Context, ticker string, doc domain.Document) (string, error)
}

// SlideWriter lists slide decks for an event and turns one deck into a text
// file.
type SlideWriter interface {
	DecksForEvent(ctx context.Context, eventID int64) ([]domain.Document, error)
	WriteText(ctx context.Context, ticker string, deck domain.Document) (string, error)
}

type Config struct {
	Meta        MetaBuilder
	Transcripts TranscriptWriter
	Slides      SlideWriter
	// Logger defaults to a no-op logger when nil.
	Logger *zap.Logger
}

// TickerSummary reports how one ticker's events fared in a run.
type TickerSummary struct {
	Ticker    string
	Processed int
	Skipped   int
}

// Manager runs the pipeline for a list of tickers, one event at a time. An
// event is processed only when both its transcript and its slide text land
// on disk; a failure on either side skips the event and removes whatever
// was already written for it.
type Manager struct {
	meta        MetaBuilder
	transcripts TranscriptWriter
	slides      SlideWriter
	logger      *zap.Logger
}

func New(cfg Config) (*Manager, error) {
	if cfg.Meta == nil {
		return nil, errors.New("manager: Meta is required")
	}
	if cfg.Transcripts == nil {
		return nil, errors.New("manager: Transcripts is required")
	}
	if cfg.Slides == nil {
		return nil, errors.New("manager: Slides is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		meta:        cfg.Meta,
		transcripts: cfg.Transcripts,
		slides:      cfg.Slides,
		logger:      logger,
	}, nil
}

// Run processes each ticker in order and returns one summary per finished
// ticker. Metadata and deck-listing failures abort the run; per-event
// extraction failures only skip the event.
func (m *Manager) Run(ctx context.Context, tickers []string) ([]TickerSummary, error) {
	runLog := m.logger.With(zap.String("run_id", uuid.NewString()))

	summaries := make([]TickerSummary, 0, len(tickers))
	for _, raw := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		tickerLog := runLog.With(zap.String("ticker", ticker))
		tickerLog.Info("processing ticker")

		indexPath, err := m.meta.BuildMeta(ctx, ticker)
		if err != nil {
			return summaries, fmt.Errorf("build metadata for %s: %w", ticker, err)
		}
		docs, err := meta.LoadIndex(indexPath)
		if err != nil {
			return summaries, fmt.Errorf("load metadata index for %s: %w", ticker, err)
		}
		if len(docs) == 0 {
			tickerLog.Info("no transcript metadata items found")
			summaries = append(summaries, TickerSummary{Ticker: ticker})
			continue
		}

		summary := TickerSummary{Ticker: ticker}
		for _, group := range groupByEvent(docs) {
			eventLog := tickerLog.With(zap.Int64("event_id", group.eventID))

			decks, err := m.slides.DecksForEvent(ctx, group.eventID)
			if err != nil {
				return summaries, fmt.Errorf("list slide decks for event %d: %w", group.eventID, err)
			}
			if len(decks) == 0 {
				summary.Skipped++
				eventLog.Warn("skipping event: no slide deck found")
				continue
			}

			doc := chooseBest(group.docs)
			deck := chooseBest(decks)

			txtPath, err := m.transcripts.WriteText(ctx, ticker, doc)
			if err != nil {
				summary.Skipped++
				eventLog.Warn("skipping event: transcript extraction failed", zap.Error(err))
				continue
			}

			slidesPath, err := m.slides.WriteText(ctx, ticker, deck)
			if err != nil {
				removeQuietly(txtPath)
				summary.Skipped++
				eventLog.Warn("skipping event: slide extraction failed", zap.Error(err))
				continue
			}

			summary.Processed++
			eventLog.Info("event processed",
				zap.String("transcript", filepath.Base(txtPath)),
				zap.String("slides", filepath.Base(slidesPath)))
		}

		tickerLog.Info("ticker done",
			zap.Int("processed", summary.Processed),
			zap.Int("skipped", summary.Skipped))
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// eventGroup is every metadata record sharing one event id, in index order.
type eventGroup struct {
	eventID int64
	docs    []domain.Document
}

// groupByEvent buckets documents by event id, keeping first-seen event
// order. Documents without an integer event id are dropped.
func groupByEvent(docs []domain.Document) []eventGroup {
	index := make(map[int64]int)
	var groups []eventGroup
	for _, doc := range docs {
		if !doc.HasEventID {
			continue
		}
		i, ok := index[doc.EventID]
		if !ok {
			i = len(groups)
			index[doc.EventID] = i
			groups = append(groups, eventGroup{eventID: doc.EventID})
		}
		groups[i].docs = append(groups[i].docs, doc)
	}
	return groups
}

// chooseBest picks the most recently updated document. Records without an
// updatedAt sort last; ties keep input order.
func chooseBest(docs []domain.Document) domain.Document {
	if len(docs) == 0 {
		return domain.Document{}
	}
	sorted := make([]domain.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt > sorted[j].UpdatedAt
	})
	return sorted[0]
}

// removeQuietly deletes a partially-written output. Best effort only, the
// skip is already being reported.
func removeQuietly(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}
