package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// maxResponseBody bounds a decoded source response.
const maxResponseBody = 8 << 20

// BaseAdapter wraps a client with error mapping to domain errors.
type BaseAdapter struct {
	client *clients.Client
	source string
}

// NewBaseAdapter creates a base adapter for the named source.
func NewBaseAdapter(client *clients.Client, source string) BaseAdapter {
	return BaseAdapter{client: client, source: source}
}

// Get performs a GET and returns the body of a 2xx response. The caller
// closes it.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.check(resp, err, operation)
}

// PostJSON encodes v and POSTs it, returning the body of a 2xx response.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, v any, operation string) (io.ReadCloser, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", operation, err)
	}

	resp, err := a.client.Post(ctx, path, bytes.NewReader(payload))

	return a.check(resp, err, operation)
}

func (a *BaseAdapter) check(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.source, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.source, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it. A body that is
// not valid JSON is a network error: the source answered badly.
func DecodeResponse[T any](body io.ReadCloser, source string) (T, error) {
	var result T

	if body == nil {
		return result, domain.NewNetworkError(source, "empty response")
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&result); err != nil {
		return result, domain.NewNetworkError(source, "decoding response: "+err.Error())
	}

	return result, nil
}

// remoteRecord is the lenient wire shape of a record served by a source.
type remoteRecord struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Title     string          `json:"title,omitempty"`
	Category  string          `json:"category,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// outboundRecord is what a newly added quote is published as. Title
// mirrors text for origins that only know posts.
type outboundRecord struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// translator converts one remote record into a domain quote. ok is false
// when the record must be skipped; reason says why.
type translator func(rec *remoteRecord) (q domain.Quote, ok bool, reason string)

// newRecordTranslator labels records without a category with defaultCategory.
func newRecordTranslator(defaultCategory string) translator {
	return func(rec *remoteRecord) (domain.Quote, bool, string) {
		text := strings.TrimSpace(rec.Text)
		if text == "" {
			text = strings.TrimSpace(rec.Title)
		}

		if text == "" {
			return domain.Quote{}, false, "record has no text or title"
		}

		category := strings.TrimSpace(rec.Category)
		if category == "" {
			category = defaultCategory
		}

		return domain.Quote{
			ID:        remoteID(rec.ID),
			Text:      text,
			Category:  category,
			Timestamp: remoteTimestamp(rec),
		}, true, ""
	}
}

// remoteID accepts both string and numeric identifiers.
func remoteID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(raw)
}

// remoteTimestamp accepts a numeric or numeric-string "timestamp" in
// milliseconds, then an RFC 3339 "updatedAt". Anything else yields 0.
func remoteTimestamp(rec *remoteRecord) int64 {
	if raw := strings.Trim(string(rec.Timestamp), `"`); raw != "" && raw != "null" {
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return ms
		}

		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return int64(f)
		}
	}

	if rec.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
			return t.UnixMilli()
		}
	}

	return 0
}
