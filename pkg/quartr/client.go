// Package quartr is a typed client for the Quartr public v3 documents API.
package quartr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quartr-fetch/pkg/domain"
	"quartr-fetch/pkg/httpclient"
)

const (
	// APIBase is the production endpoint. Tests point BaseURL elsewhere.
	APIBase = "https://api.quartr.com/public/v3"

	// DefaultTimeout bounds metadata and listing calls.
	DefaultTimeout = 60 * time.Second

	transcriptPageLimit = 200
	deckListLimit       = 50
)

// Config wires the client dependencies.
type Config struct {
	// APIKey is sent as the x-api-key header on every call.
	APIKey string

	// BaseURL overrides APIBase when set.
	BaseURL string

	// Timeout overrides DefaultTimeout when set.
	Timeout time.Duration
}

// Client talks to the documents API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a new API client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = APIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpclient.New(timeout),
	}
}

// envelope is the common response shape: a data payload plus an optional
// pagination block.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		NextCursor any `json:"nextCursor"`
	} `json:"pagination"`
}

// AllTranscriptDocuments pages through the transcript documents for one
// ticker and returns every record in served (ascending) order. Paging stops
// when a page has an empty or non-array data payload, or when the response
// carries no next cursor.
func (c *Client) AllTranscriptDocuments(ctx context.Context, ticker string) ([]domain.Document, error) {
	var docs []domain.Document
	cursor := int64(0)

	for {
		params := url.Values{}
		params.Set("tickers", strings.ToUpper(strings.TrimSpace(ticker)))
		params.Set("limit", strconv.Itoa(transcriptPageLimit))
		params.Set("cursor", strconv.FormatInt(cursor, 10))
		params.Set("direction", "asc")
		params.Set("expand", "event")

		body, err := c.get(ctx, "/documents/transcripts", params)
		if err != nil {
			return nil, err
		}

		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode transcripts page: %w", err)
		}

		records, ok := arrayItems(env.Data)
		if !ok || len(records) == 0 {
			break
		}
		for _, raw := range records {
			docs = append(docs, domain.ParseDocument(raw))
		}

		next, ok, err := cursorValue(env.Pagination.NextCursor)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cursor = next
	}

	return docs, nil
}

// SlideDecks lists the slide decks attached to one event. A non-array data
// payload yields an empty list rather than an error.
func (c *Client) SlideDecks(ctx context.Context, eventID int64) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("eventIds", strconv.FormatInt(eventID, 10))
	params.Set("expand", "event")
	params.Set("limit", strconv.Itoa(deckListLimit))
	params.Set("direction", "asc")

	body, err := c.get(ctx, "/documents/slides", params)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode slide decks: %w", err)
	}

	records, ok := arrayItems(env.Data)
	if !ok {
		return nil, nil
	}

	decks := make([]domain.Document, 0, len(records))
	for _, raw := range records {
		decks = append(decks, domain.ParseDocument(raw))
	}
	return decks, nil
}

// SlideDeckDetail fetches the full record for one deck by id. The record is
// the envelope's data object; a missing data object yields an empty record.
func (c *Client) SlideDeckDetail(ctx context.Context, deckID int64) (domain.Document, error) {
	params := url.Values{}
	params.Set("expand", "event")

	body, err := c.get(ctx, fmt.Sprintf("/documents/slides/%d", deckID), params)
	if err != nil {
		return domain.Document{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Document{}, fmt.Errorf("decode deck detail: %w", err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || string(data) == "null" {
		data = []byte("{}")
	}
	return domain.ParseDocument(data), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, err
	}

	return io.ReadAll(resp.Body)
}

// arrayItems splits a data payload into its raw elements. ok is false when
// the payload is not a JSON array.
func arrayItems(data json.RawMessage) ([]json.RawMessage, bool) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// cursorValue interprets the nextCursor field. ok is false when no cursor
// was provided (null or absent). Numeric strings are accepted and floats
// truncate toward zero.
func cursorValue(v any) (int64, bool, error) {
	switch n := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return int64(n), true, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("parse nextCursor %q: %w", n, err)
		}
		return i, true, nil
	default:
		return 0, false, fmt.Errorf("unsupported nextCursor type %T", v)
	}
}

func drainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
