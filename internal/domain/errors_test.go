package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrValidation,
		ErrFormat,
		ErrNetwork,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b,
					"sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		expectedMsg string
	}{
		{
			name:        "with entity and ID",
			entity:      "snapshot",
			id:          "quotes",
			expectedMsg: `snapshot with id "quotes" not found`,
		},
		{
			name:        "with entity only",
			entity:      "quote",
			expectedMsg: "quote not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.id)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("category", "must not be empty")

	assert.Equal(t, "validation failed for category: must not be empty", err.Error())
	assert.True(t, IsValidation(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)

	noField := NewValidationError("", "bad input")
	assert.Equal(t, "validation failed: bad input", noField.Error())
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
		index       int
	}{
		{
			name:        "document level",
			err:         NewFormatError("expected a JSON array"),
			expectedMsg: "invalid format: expected a JSON array",
			index:       -1,
		},
		{
			name:        "element level",
			err:         NewElementFormatError(2, "expected an object"),
			expectedMsg: "invalid format at element 2: expected an object",
			index:       2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			assert.True(t, IsFormat(tt.err))

			var fe *FormatError
			require.ErrorAs(t, tt.err, &fe)
			assert.Equal(t, tt.index, fe.Index)
		})
	}
}

func TestNetworkError(t *testing.T) {
	err := NewNetworkError("jsonplaceholder", "circuit breaker open")

	assert.Equal(t, `source "jsonplaceholder" unreachable: circuit breaker open`, err.Error())
	assert.True(t, IsNetwork(err))
	assert.False(t, IsFormat(err))

	bare := NewNetworkError("origin", "")
	assert.Equal(t, `source "origin" unreachable`, bare.Error())
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("syncing: %w", NewNetworkError("origin", "timeout"))
	assert.True(t, IsNetwork(wrapped))

	joined := errors.Join(errors.New("other"), NewFormatError("bad"))
	assert.True(t, IsFormat(joined))
	assert.False(t, IsValidation(joined))
}
