// Package meta builds the on-disk transcript metadata index for a ticker:
// one pretty-printed JSON file per document record plus an _index.json
// holding the full ordered list.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/fsio"
	"quartr-fetch/pkg/quartr"
	"quartr-fetch/pkg/sanitize"
)

// IndexFileName is the index file written alongside the per-record files.
const IndexFileName = "_index.json"

// Config wires the service dependencies.
type Config struct {
	Client *quartr.Client

	// BaseDir is the root for all output paths. Defaults to ".".
	BaseDir string
}

// Service fetches transcript document metadata and persists it.
type Service struct {
	client  *quartr.Client
	baseDir string
}

// New creates a new metadata service.
func New(cfg Config) *Service {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	return &Service{
		client:  cfg.Client,
		baseDir: baseDir,
	}
}

// BuildMeta fetches every transcript document for ticker and writes the
// per-record files plus the index. Returns the index path. A fetch failure
// leaves no index behind for this run; callers must not treat an index from
// an earlier run as complete.
func (s *Service) BuildMeta(ctx context.Context, ticker string) (string, error) {
	docs, err := s.client.AllTranscriptDocuments(ctx, ticker)
	if err != nil {
		return "", fmt.Errorf("fetch transcript documents for %s: %w", ticker, err)
	}
	return WriteMetaFiles(ticker, docs, s.baseDir)
}

// WriteMetaFiles writes docs under <baseDir>/transcript_meta/<slug(ticker)>/:
// one <title-slug>_<id>.json per record that carries an integer id, then the
// index with the full ordered list. Record bytes are written as served,
// pretty-printed with the server's key order intact, so an unchanged remote
// dataset reproduces byte-identical files. Returns the index path.
func WriteMetaFiles(ticker string, docs []domain.Document, baseDir string) (string, error) {
	outDir := filepath.Join(baseDir, "transcript_meta", sanitize.Slug(ticker))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", outDir, err)
	}

	for _, doc := range docs {
		if !doc.HasID {
			continue
		}

		title := doc.EventTitle
		if title == "" && doc.HasEventID {
			title = fmt.Sprintf("event_%d", doc.EventID)
		}

		name := fmt.Sprintf("%s_%d.json", sanitize.Slug(title), doc.ID)
		if err := fsio.WriteStaged(filepath.Join(outDir, name), pretty.Pretty(doc.Raw)); err != nil {
			return "", err
		}
	}

	indexPath := filepath.Join(outDir, IndexFileName)
	if err := fsio.WriteStaged(indexPath, indexJSON(docs)); err != nil {
		return "", err
	}
	return indexPath, nil
}

func indexJSON(docs []domain.Document) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(doc.Raw)
	}
	buf.WriteByte(']')
	return pretty.Pretty(buf.Bytes())
}

// LoadIndex reads an index file back into documents, preserving order.
// A file whose root is valid JSON but not an array yields no documents.
func LoadIndex(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		if json.Valid(data) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}

	docs := make([]domain.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, domain.ParseDocument(raw))
	}
	return docs, nil
}

// LoadRecord reads a single metadata record file. The file may hold either
// a bare record object or an API-shaped {"data": {...}} envelope.
func LoadRecord(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	if !json.Valid(data) {
		return domain.Document{}, fmt.Errorf("decode record %s: invalid JSON", path)
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && isObject(env.Data) {
		return domain.ParseDocument(env.Data), nil
	}
	return domain.ParseDocument(data), nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
