package acl

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

func TestRecordTranslator(t *testing.T) {
	translate := newRecordTranslator("Server")

	tests := []struct {
		name   string
		record string
		want   domain.Quote
		skip   bool
	}{
		{
			name:   "native shape",
			record: `{"text":"Keep going.","category":"Perseverance","timestamp":1700000000000}`,
			want:   domain.Quote{Text: "Keep going.", Category: "Perseverance", Timestamp: 1700000000000},
		},
		{
			name:   "post shape falls back to title and default category",
			record: `{"id":7,"userId":1,"title":"sunt aut facere","body":"quia et suscipit"}`,
			want:   domain.Quote{ID: "7", Text: "sunt aut facere", Category: "Server"},
		},
		{
			name:   "text wins over title",
			record: `{"text":"Be brief.","title":"ignored"}`,
			want:   domain.Quote{Text: "Be brief.", Category: "Server"},
		},
		{
			name:   "updatedAt when timestamp is absent",
			record: `{"text":"Later.","updatedAt":"2024-01-02T03:04:05Z"}`,
			want:   domain.Quote{Text: "Later.", Category: "Server", Timestamp: 1704164645000},
		},
		{
			name:   "numeric string timestamp",
			record: `{"text":"Quoted.","timestamp":"1234"}`,
			want:   domain.Quote{Text: "Quoted.", Category: "Server", Timestamp: 1234},
		},
		{
			name:   "unparseable timestamp becomes zero",
			record: `{"text":"Undated.","timestamp":"yesterday","updatedAt":"not a date"}`,
			want:   domain.Quote{Text: "Undated.", Category: "Server"},
		},
		{
			name:   "string id",
			record: `{"id":"q-1","text":"Named."}`,
			want:   domain.Quote{ID: "q-1", Text: "Named.", Category: "Server"},
		},
		{
			name:   "whitespace is trimmed",
			record: `{"text":"  Spaced.  ","category":"  Life "}`,
			want:   domain.Quote{Text: "Spaced.", Category: "Life"},
		},
		{
			name:   "no text or title is skipped",
			record: `{"id":3,"body":"only a body"}`,
			skip:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec remoteRecord
			require.NoError(t, json.Unmarshal([]byte(tt.record), &rec))

			got, ok, reason := translate(&rec)

			if tt.skip {
				assert.False(t, ok)
				assert.NotEmpty(t, reason)

				return
			}

			require.True(t, ok, reason)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name     string
		resp     *http.Response
		err      error
		contains []string
	}{
		{
			name:     "server error with nested message",
			resp:     &http.Response{StatusCode: http.StatusInternalServerError, Body: io.NopCloser(strings.NewReader(`{"error":{"message":"db down"}}`))},
			contains: []string{"unexpected HTTP 500", "db down"},
		},
		{
			name:     "flat message",
			resp:     &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(`{"message":"bad query"}`))},
			contains: []string{"HTTP 400", "bad query"},
		},
		{
			name:     "rate limited",
			resp:     &http.Response{StatusCode: http.StatusTooManyRequests, Body: http.NoBody},
			contains: []string{"rate limit exceeded"},
		},
		{
			name:     "missing endpoint",
			resp:     &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody},
			contains: []string{"endpoint not found"},
		},
		{
			name:     "no response",
			contains: []string{"no response received"},
		},
		{
			name:     "circuit open",
			err:      clients.ErrCircuitOpen,
			contains: []string{"circuit breaker open"},
		},
		{
			name:     "retries exhausted on status",
			err:      wrapRetries(&clients.StatusError{StatusCode: http.StatusBadGateway}),
			contains: []string{"HTTP 502 after retries"},
		},
		{
			name:     "transport failure",
			err:      wrapRetries(io.ErrUnexpectedEOF),
			contains: []string{"unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.resp, tt.err, "origin", "fetch batch")

			require.Error(t, err)
			assert.True(t, domain.IsNetwork(err), "every source failure is a network error")

			var netErr *domain.NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.Equal(t, "origin", netErr.Source)

			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func wrapRetries(err error) error {
	return &retriesErr{err: err}
}

// retriesErr mimics the client's "%w: %w" wrapping of ErrMaxRetriesExceeded.
type retriesErr struct{ err error }

func (e *retriesErr) Error() string   { return clients.ErrMaxRetriesExceeded.Error() + ": " + e.err.Error() }
func (e *retriesErr) Unwrap() []error { return []error{clients.ErrMaxRetriesExceeded, e.err} }

func TestParseErrorResponse(t *testing.T) {
	assert.Equal(t, "nested", ParseErrorResponse(strings.NewReader(`{"error":{"message":"nested"}}`)).GetMessage())
	assert.Equal(t, "flat", ParseErrorResponse(strings.NewReader(`{"message":"flat"}`)).GetMessage())
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`not json`)))
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`{}`)))
	assert.Nil(t, ParseErrorResponse(nil))
}

func TestDecodeResponse(t *testing.T) {
	got, err := DecodeResponse[[]remoteRecord](io.NopCloser(strings.NewReader(`[{"text":"a"}]`)), "origin")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = DecodeResponse[[]remoteRecord](io.NopCloser(strings.NewReader(`{"text":"a"}`)), "origin")
	assert.True(t, domain.IsNetwork(err), "an object where an array belongs is a bad answer")

	_, err = DecodeResponse[[]remoteRecord](nil, "origin")
	assert.True(t, domain.IsNetwork(err))
}
