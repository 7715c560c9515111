package dto

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_IsShared(t *testing.T) {
	assert.Same(t, Validator(), Validator())
}

func TestValidate_AddQuoteRequest(t *testing.T) {
	tests := []struct {
		name        string
		input       AddQuoteRequest
		wantDetails map[string]string
	}{
		{
			name:  "valid",
			input: AddQuoteRequest{Text: "Stay curious.", Category: "Wisdom"},
		},
		{
			name:        "blank text",
			input:       AddQuoteRequest{Text: "   ", Category: "Wisdom"},
			wantDetails: map[string]string{"text": "must not be empty"},
		},
		{
			name:  "both missing",
			input: AddQuoteRequest{},
			wantDetails: map[string]string{
				"text":     "must not be empty",
				"category": "must not be empty",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.input)

			if tt.wantDetails == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrValidation)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, tt.wantDetails, ValidationErrors(err))
		})
	}
}

func TestBindAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid", body: `{"text":"Stay curious.","category":"Wisdom"}`},
		{name: "malformed JSON", body: `{"text":`, wantErr: ErrBinding},
		{name: "wrong type", body: `{"text":42,"category":"Wisdom"}`, wantErr: ErrBinding},
		{name: "empty category", body: `{"text":"Stay curious.","category":""}`, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req AddQuoteRequest
			err := BindAndValidate(c, &req)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, "Wisdom", req.Category)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBindQueryAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantErr     error
		wantDetails map[string]string
	}{
		{name: "defaults", query: ""},
		{name: "category and limit", query: "?category=Life&limit=5"},
		{name: "limit not a number", query: "?limit=many", wantErr: ErrBinding},
		{
			name:        "limit too large",
			query:       "?limit=500",
			wantErr:     ErrValidation,
			wantDetails: map[string]string{"limit": "must be less than or equal to 100"},
		},
		{name: "zero limit falls back to default", query: "?limit=0&cursor=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/quotes"+tt.query, http.NoBody)

			var req ListQuotesRequest
			err := BindQueryAndValidate(c, &req)

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)

			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, ValidationErrors(err))
			}
		})
	}
}

func TestValidationErrors_NonValidatorError(t *testing.T) {
	assert.Empty(t, ValidationErrors(ErrBinding))
	assert.False(t, IsValidationError(ErrBinding))
}

func TestValidationMessage(t *testing.T) {
	type sample struct {
		Name   string `json:"name"   validate:"required"`
		Label  string `json:"label"  validate:"min=3"`
		Size   int    `json:"size"   validate:"max=10"`
		Mode   string `json:"mode"   validate:"oneof=text id"`
		Weight int    `json:"weight" validate:"gte=1"`
		Hex    string `json:"hex"    validate:"hexadecimal"`
	}

	err := Validate(&sample{Label: "ab", Size: 11, Mode: "hash", Hex: "zz"})
	require.Error(t, err)

	assert.Equal(t, map[string]string{
		"name":   "this field is required",
		"label":  "must be at least 3 characters",
		"size":   "must be at most 10",
		"mode":   "must be one of: text id",
		"weight": "must be greater than or equal to 1",
		"hex":    "failed validation: hexadecimal",
	}, ValidationErrors(err))
}

func TestFieldName(t *testing.T) {
	type sample struct {
		JSON    string `json:"text,omitempty"`
		Form    string `form:"category"`
		Skipped string `json:"-"`
		Plain   string
	}

	typ := reflect.TypeFor[sample]()

	assert.Equal(t, "text", fieldName(typ.Field(0)))
	assert.Equal(t, "category", fieldName(typ.Field(1)))
	assert.Empty(t, fieldName(typ.Field(2)))
	assert.Equal(t, "Plain", fieldName(typ.Field(3)))
}
