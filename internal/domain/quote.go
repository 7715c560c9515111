package domain

import (
	"math/rand/v2"
	"time"
)

// CategoryAll is the filter value that selects every quote.
const CategoryAll = "all"

// Quote represents a quotation and the category it is filed under.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is an optional stable identifier, only assigned in ID identity mode.
	ID string

	// Text is the quotation body. It doubles as the merge key by default.
	Text string

	// Category is a free-form, case-sensitive label.
	Category string

	// Timestamp is the Unix time in milliseconds of the last write.
	Timestamp int64
}

// Clock supplies timestamps for new and loaded quotes.
type Clock interface {
	Now() int64
}

// RandomSource supplies floats in [0, 1) for random selection.
type RandomSource interface {
	Float64() float64
}

// SystemClock reports wall time in Unix milliseconds.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() int64

// Now implements Clock.
func (f ClockFunc) Now() int64 {
	return f()
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 {
	return rand.Float64() //nolint:gosec // selection does not need crypto-grade randomness
}

// RandomFunc adapts a plain function to RandomSource.
type RandomFunc func() float64

// Float64 implements RandomSource.
func (f RandomFunc) Float64() float64 {
	return f()
}

// DefaultQuotes returns the seed set used when nothing usable was persisted.
func DefaultQuotes(now int64) []Quote {
	return []Quote{
		{
			Text:      "The only limit to our realization of tomorrow is our doubts of today.",
			Category:  "Motivation",
			Timestamp: now,
		},
		{
			Text:      "Life is 10% what happens to us and 90% how we react to it.",
			Category:  "Life",
			Timestamp: now,
		},
		{
			Text:      "It does not matter how slowly you go as long as you do not stop.",
			Category:  "Perseverance",
			Timestamp: now,
		},
	}
}
