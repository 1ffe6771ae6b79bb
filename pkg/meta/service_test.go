package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/quartr"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	baseDir := t.TempDir()
	service := New(Config{
		Client:  quartr.New(quartr.Config{APIKey: "k", BaseURL: server.URL}),
		BaseDir: baseDir,
	})
	return service, baseDir
}

func singlePage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "0" {
			fmt.Fprint(w, page)
			return
		}
		fmt.Fprint(w, `{"data": []}`)
	}
}

func TestBuildMetaWritesIndexAndRecords(t *testing.T) {
	page := `{"data": [
		{"id": 1, "eventId": 7, "event": {"title": "Q3 2024 Earnings Call"}},
		{"id": 2, "eventId": 7},
		{"id": "bad", "eventId": 7, "event": {"title": "Broken Record"}}
	]}`

	service, baseDir := newTestService(t, singlePage(page))

	indexPath, err := service.BuildMeta(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("BuildMeta: %v", err)
	}

	wantIndex := filepath.Join(baseDir, "transcript_meta", "msft", IndexFileName)
	if indexPath != wantIndex {
		t.Errorf("index path = %q, want %q", indexPath, wantIndex)
	}

	docs, err := LoadIndex(indexPath)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("index has %d records, want 3", len(docs))
	}

	outDir := filepath.Dir(indexPath)
	for _, want := range []string{"q3-2024-earnings-call_1.json", "event_7_2.json"} {
		if _, err := os.Stat(filepath.Join(outDir, want)); err != nil {
			t.Errorf("missing per-record file %s: %v", want, err)
		}
	}

	// The string-id record appears in the index only.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 3 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("output dir has %d files %v, want 3", len(entries), names)
	}
}

func TestBuildMetaRecordFileHoldsTheRecord(t *testing.T) {
	page := `{"data": [{"id": 5, "eventId": 3, "fileUrl": "https://x/5.json", "event": {"title": "FY Call"}}]}`
	service, _ := newTestService(t, singlePage(page))

	indexPath, err := service.BuildMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("BuildMeta: %v", err)
	}

	doc, err := LoadRecord(filepath.Join(filepath.Dir(indexPath), "fy-call_5.json"))
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if doc.ID != 5 || doc.FileURL != "https://x/5.json" || doc.EventTitle != "FY Call" {
		t.Errorf("record round trip mismatch: %+v", doc)
	}
}

func TestBuildMetaByteIdenticalAcrossRuns(t *testing.T) {
	page := `{"data": [{"id": 1, "zeta": "z", "alpha": "a", "event": {"title": "Call"}}]}`
	service, _ := newTestService(t, singlePage(page))

	first, err := service.BuildMeta(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("first BuildMeta: %v", err)
	}
	firstBytes, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first index: %v", err)
	}

	second, err := service.BuildMeta(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("second BuildMeta: %v", err)
	}
	secondBytes, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second index: %v", err)
	}

	if !bytes.Equal(firstBytes, secondBytes) {
		t.Error("index content differs between identical runs")
	}

	// Server key order survives the round trip.
	zeta := bytes.Index(firstBytes, []byte(`"zeta"`))
	alpha := bytes.Index(firstBytes, []byte(`"alpha"`))
	if zeta == -1 || alpha == -1 || zeta > alpha {
		t.Errorf("key order not preserved: zeta at %d, alpha at %d", zeta, alpha)
	}
}

func TestBuildMetaEmptyResult(t *testing.T) {
	service, _ := newTestService(t, singlePage(`{"data": []}`))

	indexPath, err := service.BuildMeta(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("BuildMeta: %v", err)
	}

	docs, err := LoadIndex(indexPath)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d records, want 0", len(docs))
	}
}

func TestLoadIndexPreservesOrder(t *testing.T) {
	docs := []domain.Document{
		domain.ParseDocument(json.RawMessage(`{"id": 3, "updatedAt": "2024-01-01"}`)),
		domain.ParseDocument(json.RawMessage(`{"id": 1, "updatedAt": "2024-03-01"}`)),
		domain.ParseDocument(json.RawMessage(`{"id": 2}`)),
	}

	indexPath, err := WriteMetaFiles("msft", docs, t.TempDir())
	if err != nil {
		t.Fatalf("WriteMetaFiles: %v", err)
	}

	loaded, err := LoadIndex(indexPath)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}

	wantIDs := []int64{3, 1, 2}
	if len(loaded) != len(wantIDs) {
		t.Fatalf("got %d records, want %d", len(loaded), len(wantIDs))
	}
	for i, want := range wantIDs {
		if loaded[i].ID != want {
			t.Errorf("loaded[%d].ID = %d, want %d", i, loaded[i].ID, want)
		}
	}
}

func TestLoadIndexNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_index.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0644); err != nil {
		t.Fatal(err)
	}

	docs, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d records, want 0", len(docs))
	}
}

func TestLoadIndexInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_index.json")
	if err := os.WriteFile(path, []byte(`{{{`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadIndex(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadRecordEnvelope(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	if err := os.WriteFile(bare, []byte(`{"id": 7, "fileUrl": "https://x/7.json"}`), 0644); err != nil {
		t.Fatal(err)
	}
	enveloped := filepath.Join(dir, "enveloped.json")
	if err := os.WriteFile(enveloped, []byte(`{"data": {"id": 8, "fileUrl": "https://x/8.json"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadRecord(bare)
	if err != nil {
		t.Fatalf("LoadRecord(bare): %v", err)
	}
	if doc.ID != 7 {
		t.Errorf("bare record ID = %d, want 7", doc.ID)
	}

	doc, err = LoadRecord(enveloped)
	if err != nil {
		t.Fatalf("LoadRecord(enveloped): %v", err)
	}
	if doc.ID != 8 || doc.FileURL != "https://x/8.json" {
		t.Errorf("enveloped record = %+v", doc)
	}
}

func TestLoadRecordInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(path, []byte(`{"id": 7,`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRecord(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadRecordArrayDataFallsBackToWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	if err := os.WriteFile(path, []byte(`{"data": [{"id": 9}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord: %v", err)
	}
	if doc.HasID {
		t.Errorf("expected no id when data is an array, got %d", doc.ID)
	}
}
