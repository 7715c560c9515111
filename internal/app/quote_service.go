// Package app contains application services that orchestrate use cases.
// It coordinates the domain store with persistence, remote sources and
// publishers through ports, and owns the decision of when to persist.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
	"github.com/jsamuelsen/quote-keeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

const defaultMaxParallel = 4

// QuoteService orchestrates quote use cases.
// It depends on port interfaces, not concrete implementations.
type QuoteService struct {
	store      *domain.QuoteStore
	snapshots  ports.SnapshotStore
	sources    []ports.QuoteSource
	publisher  ports.QuotePublisher
	reconciler *domain.Reconciler
	executor   *Executor
	metrics    *telemetry.SyncMetrics

	maxParallel int
	logger      *slog.Logger
}

// QuoteServiceConfig contains the dependencies of the quote service.
type QuoteServiceConfig struct {
	// Snapshots persists the collection. Required.
	Snapshots ports.SnapshotStore

	// Sources are fetched on every sync, in order. May be empty.
	Sources []ports.QuoteSource

	// Publisher receives newly added quotes. Optional.
	Publisher ports.QuotePublisher

	// Identity selects how remote records are matched to local ones.
	// Defaults to domain.IdentityByText.
	Identity domain.IdentityKey

	// StoreOptions configure the clock, random source and ID generator.
	StoreOptions []domain.StoreOption

	// MaxParallel bounds concurrent source fetches.
	MaxParallel int

	Metrics *telemetry.SyncMetrics
	Logger  *slog.Logger
}

// NewQuoteService restores the collection from the snapshot store and
// returns a ready service. A missing snapshot seeds the default quotes and
// writes them back; a corrupt one is logged and replaced by the seeds in
// memory only, so the bad snapshot is kept until the next mutation.
func NewQuoteService(ctx context.Context, cfg QuoteServiceConfig) (*QuoteService, error) {
	if cfg.Snapshots == nil {
		panic("app: QuoteServiceConfig.Snapshots is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	s := &QuoteService{
		snapshots:   cfg.Snapshots,
		sources:     cfg.Sources,
		publisher:   cfg.Publisher,
		reconciler:  domain.NewReconciler(cfg.Identity),
		metrics:     cfg.Metrics,
		maxParallel: maxParallel,
		logger:      logger.With(slog.String("component", "app.QuoteService")),
	}
	s.executor = NewExecutor(s.logger)

	if err := s.restore(ctx, cfg.StoreOptions); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *QuoteService) restore(ctx context.Context, opts []domain.StoreOption) error {
	data, err := s.snapshots.Read(ctx)

	switch {
	case err == nil:
		store, loadErr := domain.LoadStore(data, opts...)
		if loadErr == nil {
			s.store = store
			s.logger.InfoContext(ctx, "restored quotes from snapshot", slog.Int("count", store.Len()))

			return nil
		}

		s.logger.WarnContext(ctx, "snapshot is unreadable, falling back to default quotes",
			slog.Any("error", loadErr),
		)

		s.store = domain.NewSeededStore(opts...)

		return nil

	case domain.IsNotFound(err):
		s.store = domain.NewSeededStore(opts...)
		s.logger.InfoContext(ctx, "no snapshot found, seeded default quotes", slog.Int("count", s.store.Len()))

		return s.persist(ctx)

	default:
		return fmt.Errorf("reading snapshot: %w", err)
	}
}

// persist writes the current collection. Failures are logged and returned
// but the in-memory collection is kept as is.
func (s *QuoteService) persist(ctx context.Context) error {
	data, err := s.store.Serialize()
	if err != nil {
		return fmt.Errorf("serializing quotes: %w", err)
	}

	if err := s.snapshots.Write(ctx, data); err != nil {
		logging.FromContextOr(ctx, s.logger).ErrorContext(ctx, "persisting quotes failed", slog.Any("error", err))

		return fmt.Errorf("persisting quotes: %w", err)
	}

	return nil
}

// AddQuoteInput is the input of the add use case.
type AddQuoteInput struct {
	Text     string
	Category string
}

// AddQuote appends a quote, persists the collection and publishes the new
// quote to the remote origin on a best-effort basis.
func (s *QuoteService) AddQuote(ctx context.Context, in AddQuoteInput) (domain.Quote, error) {
	op := Operation[AddQuoteInput, domain.Quote, domain.Quote, domain.Quote]{
		Name: "AddQuote",
		Perform: func(_ context.Context, in AddQuoteInput) (domain.Quote, error) {
			return s.store.Add(in.Text, in.Category)
		},
		Verify: func(_ context.Context, _ AddQuoteInput, q domain.Quote) (domain.Quote, error) {
			if q.Text == "" || q.Category == "" {
				return domain.Quote{}, errors.New("store returned an incomplete quote")
			}

			return q, nil
		},
		Archive: func(ctx context.Context, _ AddQuoteInput, _ domain.Quote) error {
			return s.persist(ctx)
		},
		Respond: func(_ context.Context, _ AddQuoteInput, q domain.Quote) (domain.Quote, error) {
			return q, nil
		},
	}

	q, err := Execute(ctx, s.executor, op, in)
	if err != nil {
		return domain.Quote{}, err
	}

	s.publish(ctx, q)

	return q, nil
}

func (s *QuoteService) publish(ctx context.Context, q domain.Quote) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, q); err != nil {
		logging.FromContextOr(ctx, s.logger).WarnContext(ctx, "publishing quote failed",
			slog.String("text", q.Text),
			slog.Any("error", err),
		)
	}
}

// ImportQuotes appends every record of a JSON document and persists when
// anything was added. A malformed document changes nothing.
func (s *QuoteService) ImportQuotes(ctx context.Context, data []byte) (int, error) {
	op := Operation[[]byte, int, int, int]{
		Name: "ImportQuotes",
		// Merge decodes and appends under one lock, so the document is
		// parsed once and a malformed one is rejected in Perform.
		Perform: func(_ context.Context, data []byte) (int, error) {
			return s.store.Merge(data)
		},
		Archive: func(ctx context.Context, _ []byte, added int) error {
			if added == 0 {
				return nil
			}

			return s.persist(ctx)
		},
		Respond: func(_ context.Context, _ []byte, added int) (int, error) {
			return added, nil
		},
	}

	return Execute(ctx, s.executor, op, data)
}

// ExportQuotes returns the collection as an indented JSON document.
func (s *QuoteService) ExportQuotes(_ context.Context) ([]byte, error) {
	return s.store.Export()
}

// ListQuotes returns the quotes of a category, or all of them for
// domain.CategoryAll.
func (s *QuoteService) ListQuotes(_ context.Context, category string) []domain.Quote {
	return s.store.FilterByCategory(category)
}

// Categories returns the distinct categories in first-occurrence order.
func (s *QuoteService) Categories(_ context.Context) []string {
	return s.store.Categories()
}

// RandomQuote picks a quote uniformly from a category.
// Returns a NotFoundError when the category holds no quotes.
func (s *QuoteService) RandomQuote(_ context.Context, category string) (domain.Quote, error) {
	q, ok := s.store.PickRandom(s.store.FilterByCategory(category))
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("quote", "")
	}

	return q, nil
}

// Count returns the number of stored quotes.
func (s *QuoteService) Count() int {
	return s.store.Len()
}

// Subscribe registers a listener for collection changes.
func (s *QuoteService) Subscribe(listener domain.ChangeListener) (cancel func()) {
	return s.store.OnChange(listener)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	domain.ReconcileResult

	Sources int
	Failed  int
}

// Sync fetches every configured source, reconciles the successful batches
// in configuration order and persists when the collection changed.
// Fetch failures are returned joined; the batches that did arrive are
// still applied.
func (s *QuoteService) Sync(ctx context.Context) (SyncResult, error) {
	result := SyncResult{Sources: len(s.sources)}
	if len(s.sources) == 0 {
		return result, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "quotes.sync", attribute.Int("quotes.sources", len(s.sources)))
	defer span.End()

	logger := logging.FromContextOr(ctx, s.logger)

	fetches := make([]func(context.Context) ([]domain.Quote, error), len(s.sources))
	for i, source := range s.sources {
		fetches[i] = source.FetchBatch
	}

	batches := ParallelPartialLimit(ctx, s.maxParallel, fetches...)

	var errs []error

	for i, batch := range batches {
		name := s.sources[i].Name()

		if batch.Err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("fetching %s: %w", name, batch.Err))
			s.metrics.RecordFetch(ctx, name, telemetry.SyncOutcomeFailed, 0)

			continue
		}

		s.metrics.RecordFetch(ctx, name, telemetry.SyncOutcomeOK, len(batch.Value))

		rec := s.reconciler.Reconcile(s.store, batch.Value)
		s.metrics.RecordReconcile(ctx, name, rec.Added, rec.Updated, len(rec.Conflicts))
		result.Merge(rec)

		logger.DebugContext(ctx, "reconciled batch",
			slog.String("source", name),
			slog.Int("received", len(batch.Value)),
			slog.Int("added", rec.Added),
			slog.Int("updated", rec.Updated),
		)
	}

	span.SetAttributes(
		attribute.Int("quotes.added", result.Added),
		attribute.Int("quotes.updated", result.Updated),
		attribute.Int("quotes.failed_sources", result.Failed),
	)

	if result.Changed() {
		logger.InfoContext(ctx, "quotes synced with remote",
			slog.Int("added", result.Added),
			slog.Int("updated", result.Updated),
			slog.Int("conflicts", len(result.Conflicts)),
		)

		if err := s.persist(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return result, errors.Join(errs...)
}
