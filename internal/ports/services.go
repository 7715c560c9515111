// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrNetwork, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// QuoteSource fetches a batch of quotes from a remote origin.
//
// Example usage in application layer:
//
//	batch, err := source.FetchBatch(ctx)
//	if domain.IsNetwork(err) {
//	    // scheduled syncs log and move on
//	}
type QuoteSource interface {
	// Name identifies the source in logs, metrics and health checks.
	Name() string

	// FetchBatch retrieves the current remote listing.
	// Returns a *domain.NetworkError when the origin cannot be reached
	// or answers with something that is not a quote listing.
	FetchBatch(ctx context.Context) ([]domain.Quote, error)
}

// QuotePublisher pushes a locally created quote to a remote origin.
// Publishing is best effort; callers log failures and continue.
type QuotePublisher interface {
	Publish(ctx context.Context, quote domain.Quote) error
}

// SnapshotStore persists the serialized quote collection as one opaque blob.
type SnapshotStore interface {
	// Read returns the last written snapshot.
	// Returns domain.ErrNotFound if nothing was ever written.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the snapshot.
	Write(ctx context.Context, data []byte) error
}
