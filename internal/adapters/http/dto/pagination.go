package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of items per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed items per page.
const MaxLimit = 100

// Cursor errors.
var (
	// ErrInvalidCursor is returned when a cursor cannot be decoded or does
	// not belong to the listing it was sent with.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor signals a first page request.
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	if p.Limit > MaxLimit {
		return MaxLimit
	}

	return p.Limit
}

// DecodeCursor decodes the cursor string into CursorData.
// Returns ErrNoCursor if cursor is empty (first page request).
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	if p.Cursor == "" {
		return nil, ErrNoCursor
	}

	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
}

// CursorData is the position encoded in a cursor. The quote collection
// only grows at the tail, so an offset stays valid across pages; Scope
// ties the cursor to the filter it was issued for.
type CursorData struct {
	Offset int    `json:"o"`
	Scope  string `json:"s"`
}

// Paginate returns the page of items selected by req. scope identifies
// the listing (the category filter); a cursor issued for another scope
// or pointing past the end is rejected with ErrInvalidCursor.
func Paginate[T any](items []T, scope string, req PaginationRequest) (*PaginatedResponse[T], error) {
	offset := 0

	cursor, err := req.DecodeCursor()

	switch {
	case errors.Is(err, ErrNoCursor):
	case err != nil:
		return nil, err
	case cursor.Scope != scope || cursor.Offset < 0 || cursor.Offset > len(items):
		return nil, ErrInvalidCursor
	default:
		offset = cursor.Offset
	}

	end := min(offset+req.GetLimit(), len(items))

	page := &PaginatedResponse[T]{
		Items:   append([]T{}, items[offset:end]...),
		HasMore: end < len(items),
		Total:   len(items),
	}

	if page.HasMore {
		page.NextCursor = EncodeCursor(&CursorData{Offset: end, Scope: scope})
	}

	return page, nil
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data.
// Returns ErrNoCursor if the encoded string is empty.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	jsonBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData

	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
