package dto

import (
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// AddQuoteRequest is the body of POST /quotes.
type AddQuoteRequest struct {
	Text     string `json:"text" validate:"notempty"`
	Category string `json:"category" validate:"notempty"`
}

// ListQuotesRequest holds the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category"`
}

// CategoryOrAll returns the requested category, defaulting to every quote.
func (r *ListQuotesRequest) CategoryOrAll() string {
	if r.Category == "" {
		return domain.CategoryAll
	}

	return r.Category
}

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	Timestamp int64  `json:"timestamp"`
}

// CategoriesResponse lists the distinct categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ImportResponse reports how many quotes an import appended.
type ImportResponse struct {
	Added int `json:"added"`
}

// SyncResponse summarizes a manual sync.
type SyncResponse struct {
	Sources   int `json:"sources"`
	Failed    int `json:"failedSources"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Conflicts int `json:"conflicts"`
}

// QuoteFromDomain converts a domain quote.
func QuoteFromDomain(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		Text:      q.Text,
		Category:  q.Category,
		Timestamp: q.Timestamp,
	}
}

// QuotesFromDomain converts a slice of domain quotes.
func QuotesFromDomain(qs []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(qs))
	for i, q := range qs {
		out[i] = QuoteFromDomain(q)
	}

	return out
}

// SyncFromResult converts a sync result.
func SyncFromResult(r app.SyncResult) SyncResponse {
	return SyncResponse{
		Sources:   r.Sources,
		Failed:    r.Failed,
		Added:     r.Added,
		Updated:   r.Updated,
		Conflicts: len(r.Conflicts),
	}
}
