package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// quoteRecord is the decoding shape of one persisted element.
// Pointers distinguish a missing field from an empty one.
type quoteRecord struct {
	Text      *string          `json:"text"`
	Category  *string          `json:"category"`
	Timestamp *json.RawMessage `json:"timestamp"`
	ID        *string          `json:"id"`
}

// quoteJSON is the encoding shape. Field order is the wire order.
type quoteJSON struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id,omitempty"`
}

// DecodeQuotes parses the persisted quote grammar:
//
//	[ { "text": string, "category": string, "timestamp"?: number }, ... ]
//
// Elements without a timestamp are stamped with now. Any deviation from the
// grammar yields a *FormatError and no quotes.
func DecodeQuotes(data []byte, now int64) ([]Quote, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, NewFormatError("expected a JSON array")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, NewFormatError(err.Error())
	}

	quotes := make([]Quote, 0, len(elements))

	for i, raw := range elements {
		q, err := decodeElement(i, raw, now)
		if err != nil {
			return nil, err
		}

		quotes = append(quotes, q)
	}

	return quotes, nil
}

func decodeElement(index int, raw json.RawMessage, now int64) (Quote, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || body[0] != '{' {
		return Quote{}, NewElementFormatError(index, "expected an object")
	}

	var rec quoteRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return Quote{}, NewElementFormatError(index, err.Error())
	}

	if rec.Text == nil || strings.TrimSpace(*rec.Text) == "" {
		return Quote{}, NewElementFormatError(index, "text must be a non-empty string")
	}

	if rec.Category == nil || strings.TrimSpace(*rec.Category) == "" {
		return Quote{}, NewElementFormatError(index, "category must be a non-empty string")
	}

	q := Quote{
		Text:      *rec.Text,
		Category:  *rec.Category,
		Timestamp: now,
	}

	if rec.ID != nil {
		q.ID = *rec.ID
	}

	if rec.Timestamp != nil {
		ts, err := parseTimestamp(*rec.Timestamp)
		if err != nil {
			return Quote{}, NewElementFormatError(index, err.Error())
		}

		q.Timestamp = ts
	}

	return q, nil
}

// parseTimestamp accepts integral numbers and truncates fractional ones.
// Strings and values outside the int64 range are rejected.
func parseTimestamp(raw json.RawMessage) (int64, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || body[0] == '"' {
		return 0, fmt.Errorf("timestamp %s is not a number", body)
	}

	var n json.Number
	if err := json.Unmarshal(body, &n); err != nil {
		return 0, fmt.Errorf("timestamp %s is not a number", body)
	}

	if ts, err := n.Int64(); err == nil {
		return ts, nil
	}

	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) ||
		f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("timestamp %s is out of range", n.String())
	}

	return int64(f), nil
}

// EncodeQuotes renders quotes in the persisted grammar.
// With indent set the output is pretty-printed for human consumption.
func EncodeQuotes(quotes []Quote, indent bool) ([]byte, error) {
	out := make([]quoteJSON, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, quoteJSON{
			Text:      q.Text,
			Category:  q.Category,
			Timestamp: q.Timestamp,
			ID:        q.ID,
		})
	}

	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}

	if err != nil {
		return nil, fmt.Errorf("encoding quotes: %w", err)
	}

	return data, nil
}
