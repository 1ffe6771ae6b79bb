// Package transcripts downloads raw earnings-call transcript payloads and
// turns them into plain text files on disk.
package transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/fsio"
	"quartr-fetch/pkg/httpclient"
	"quartr-fetch/pkg/sanitize"
)

// DownloadTimeout bounds a single transcript payload download.
const DownloadTimeout = 120 * time.Second

// ErrNoFileURL means the metadata record carries no downloadable fileUrl.
var ErrNoFileURL = errors.New("metadata record has no fileUrl")

type Config struct {
	// APIKey is sent as x-api-key on payload downloads.
	APIKey string
	// BaseDir is the root for output files. Defaults to the working directory.
	BaseDir string
}

// Service turns one transcript metadata record into a text file under
// transcript_raw/<ticker>/.
type Service struct {
	apiKey  string
	baseDir string
	client  *http.Client
}

func New(cfg Config) *Service {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	return &Service{
		apiKey:  cfg.APIKey,
		baseDir: baseDir,
		client:  httpclient.New(DownloadTimeout),
	}
}

// WriteText downloads the transcript payload referenced by doc, extracts its
// plain text and writes it to disk. It returns the path of the written file.
func (s *Service) WriteText(ctx context.Context, ticker string, doc domain.Document) (string, error) {
	if doc.FileURL == "" {
		return "", ErrNoFileURL
	}

	title := doc.EventTitle
	if title == "" && doc.HasID {
		title = fmt.Sprintf("transcript_%d", doc.ID)
	}
	name := sanitize.Filename(title, 140, "transcript")
	if doc.HasID {
		name = fmt.Sprintf("%s_%d", name, doc.ID)
	}

	outDir := filepath.Join(s.baseDir, "transcript_raw", strings.ToLower(ticker))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, name+".txt")

	raw, err := s.downloadJSON(ctx, doc.FileURL)
	if err != nil {
		return "", err
	}

	text, err := ExtractText(raw)
	if err != nil {
		return "", err
	}

	if err := fsio.WriteStaged(outPath, []byte(text+"\n")); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *Service) downloadJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download transcript: %w", err)
	}
	defer drainAndClose(resp.Body)

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transcript payload: %w", err)
	}
	if json.Valid(body) {
		return body, nil
	}

	// Some payloads arrive slightly mangled (trailing commas, single
	// quotes). One repair pass before giving up.
	repaired, err := jsonrepair.JSONRepair(string(body))
	if err != nil {
		return nil, fmt.Errorf("transcript payload is not valid JSON: %w", err)
	}
	return []byte(repaired), nil
}

func drainAndClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
