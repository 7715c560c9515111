package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Sync outcome labels.
const (
	SyncOutcomeOK     = "ok"
	SyncOutcomeFailed = "failed"
)

// SyncMetrics records reconciliation activity against remote quote sources.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	runs      metric.Int64Counter
	added     metric.Int64Counter
	updated   metric.Int64Counter
	conflicts metric.Int64Counter
	fetchSize metric.Int64Histogram
}

// NewSyncMetrics creates the sync instruments on the global meter provider.
func NewSyncMetrics() (*SyncMetrics, error) {
	meter := otel.Meter(instrumentationName)

	runs, err := meter.Int64Counter(
		"quotes.sync.runs",
		metric.WithDescription("Number of source fetches by outcome"),
	)
	if err != nil {
		return nil, err
	}

	added, err := meter.Int64Counter(
		"quotes.sync.added",
		metric.WithDescription("Quotes appended by reconciliation"),
	)
	if err != nil {
		return nil, err
	}

	updated, err := meter.Int64Counter(
		"quotes.sync.updated",
		metric.WithDescription("Quotes overwritten by a newer remote record"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"quotes.sync.conflicts",
		metric.WithDescription("Updates whose category differed from the local record"),
	)
	if err != nil {
		return nil, err
	}

	fetchSize, err := meter.Int64Histogram(
		"quotes.sync.batch_size",
		metric.WithDescription("Records received per fetch"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runs:      runs,
		added:     added,
		updated:   updated,
		conflicts: conflicts,
		fetchSize: fetchSize,
	}, nil
}

// RecordFetch records one source fetch.
func (m *SyncMetrics) RecordFetch(ctx context.Context, source, outcome string, batchSize int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("quotes.source", source),
		attribute.String("quotes.sync.outcome", outcome),
	)

	m.runs.Add(ctx, 1, attrs)

	if outcome == SyncOutcomeOK {
		m.fetchSize.Record(ctx, int64(batchSize), metric.WithAttributes(attribute.String("quotes.source", source)))
	}
}

// RecordReconcile records the counts produced by reconciling one batch.
func (m *SyncMetrics) RecordReconcile(ctx context.Context, source string, added, updated, conflicts int) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("quotes.source", source))

	m.added.Add(ctx, int64(added), attrs)
	m.updated.Add(ctx, int64(updated), attrs)
	m.conflicts.Add(ctx, int64(conflicts), attrs)
}

// StartSpan starts a span on the module tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}
