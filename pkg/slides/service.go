// Package slides locates slide-deck documents for earnings events and
// extracts their PDF text one line per page.
package slides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/fsio"
	"quartr-fetch/pkg/httpclient"
	"quartr-fetch/pkg/quartr"
	"quartr-fetch/pkg/sanitize"
)

// DownloadTimeout bounds a single deck PDF download. Decks run large.
const DownloadTimeout = 180 * time.Second

// Quality gate defaults. Decks whose extracted text falls below both of
// these are treated as image-only and rejected.
const (
	DefaultMinCoverage   = 0.20
	DefaultMinTotalChars = 200
)

var (
	// ErrNoFileURL means no fileUrl was found, even after a detail lookup.
	ErrNoFileURL = errors.New("slide deck has no fileUrl")
	// ErrNoDeckID means the deck record has no integer id to resolve a
	// fileUrl with.
	ErrNoDeckID = errors.New("slide deck has no id")
	// ErrSparseText means per-page extraction recovered too little text to
	// be worth keeping.
	ErrSparseText = errors.New("slide text extraction too sparse")
)

type Config struct {
	// Client is the API client used for deck listing and detail lookups.
	Client *quartr.Client
	// APIKey is sent as x-api-key on PDF downloads.
	APIKey string
	// BaseDir is the root for output files. Defaults to the working directory.
	BaseDir string
	// MinCoverage is the minimum fraction of pages with text.
	// Zero means DefaultMinCoverage.
	MinCoverage float64
	// MinTotalChars is the minimum total extracted characters.
	// Zero means DefaultMinTotalChars.
	MinTotalChars int
}

// Service resolves slide decks to PDFs and writes their text to files under
// slides_text/<ticker>/.
type Service struct {
	api           *quartr.Client
	apiKey        string
	baseDir       string
	minCoverage   float64
	minTotalChars int
	client        *http.Client
}

func New(cfg Config) *Service {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	minCoverage := cfg.MinCoverage
	if minCoverage == 0 {
		minCoverage = DefaultMinCoverage
	}
	minTotalChars := cfg.MinTotalChars
	if minTotalChars == 0 {
		minTotalChars = DefaultMinTotalChars
	}
	return &Service{
		api:           cfg.Client,
		apiKey:        cfg.APIKey,
		baseDir:       baseDir,
		minCoverage:   minCoverage,
		minTotalChars: minTotalChars,
		client:        httpclient.New(DownloadTimeout),
	}
}

// DecksForEvent lists the slide decks attached to one event.
func (s *Service) DecksForEvent(ctx context.Context, eventID int64) ([]domain.Document, error) {
	return s.api.SlideDecks(ctx, eventID)
}

// WriteText downloads the deck's PDF, extracts one text line per page and
// writes the result to disk. Decks listed without a fileUrl are resolved
// through a detail lookup first; the detail record then replaces the listed
// one. Returns the path of the written file.
func (s *Service) WriteText(ctx context.Context, ticker string, deck domain.Document) (string, error) {
	deck, err := s.resolveFileURL(ctx, deck)
	if err != nil {
		return "", err
	}

	title := deck.EventTitle
	if title == "" && deck.HasEventID {
		title = fmt.Sprintf("event_%d", deck.EventID)
	}
	name := fmt.Sprintf("%s_event_%d_deck_%d",
		sanitize.Filename(title, 160, "slides"), deck.EventID, deck.ID)

	outDir := filepath.Join(s.baseDir, "slides_text", strings.ToLower(ticker))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, name+".txt")

	data, err := s.downloadPDF(ctx, deck.FileURL)
	if err != nil {
		return "", err
	}

	lines, err := pageLines(data)
	if err != nil {
		return "", err
	}

	m := measure(lines)
	if m.Pages == 0 {
		return "", fmt.Errorf("deck pdf has no pages: %w", ErrSparseText)
	}
	if m.Coverage() < s.minCoverage || m.TotalChars < s.minTotalChars {
		return "", fmt.Errorf("pages=%d, non_empty=%d, coverage=%.2f, total_chars=%d: %w",
			m.Pages, m.NonEmptyPages, m.Coverage(), m.TotalChars, ErrSparseText)
	}

	if err := fsio.WriteStaged(outPath, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return "", err
	}
	return outPath, nil
}

// resolveFileURL returns a deck record that carries a fileUrl, fetching the
// deck detail when the listed record has none.
func (s *Service) resolveFileURL(ctx context.Context, deck domain.Document) (domain.Document, error) {
	if deck.FileURL != "" {
		return deck, nil
	}
	if !deck.HasID {
		return domain.Document{}, ErrNoDeckID
	}

	detail, err := s.api.SlideDeckDetail(ctx, deck.ID)
	if err != nil {
		return domain.Document{}, err
	}
	if detail.FileURL == "" {
		return domain.Document{}, ErrNoFileURL
	}
	return detail, nil
}

func (s *Service) downloadPDF(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build deck request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Accept", "application/pdf, application/octet-stream, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download deck pdf: %w", err)
	}
	defer drainAndClose(resp.Body)

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read deck pdf: %w", err)
	}
	return data, nil
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
