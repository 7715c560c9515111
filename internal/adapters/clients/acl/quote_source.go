package acl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// RemoteSourceConfig configures a RemoteSource.
type RemoteSourceConfig struct {
	// Client is the instrumented client whose BaseURL points at the source.
	Client *clients.Client

	// Name identifies the source in errors, logs and health checks.
	// Defaults to the client's service name.
	Name string

	// FetchPath is requested on every sync.
	FetchPath string

	// PublishPath receives newly added quotes. Empty disables publishing.
	PublishPath string

	// DefaultCategory labels records without a category.
	DefaultCategory string

	// MaxItems caps the records taken per fetch. Zero means no cap.
	MaxItems int

	Logger *slog.Logger
}

// RemoteSource fetches quote batches from, and publishes new quotes to, a
// JSON HTTP endpoint. It implements ports.QuoteSource,
// ports.QuotePublisher and ports.HealthChecker.
type RemoteSource struct {
	BaseAdapter

	name        string
	fetchPath   string
	publishPath string
	maxItems    int
	translate   translator
	client      *clients.Client
	logger      *slog.Logger
}

// NewRemoteSource creates a remote source. Panics if Client is nil.
func NewRemoteSource(cfg RemoteSourceConfig) *RemoteSource {
	if cfg.Client == nil {
		panic("acl: RemoteSourceConfig.Client is required")
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, name),
		name:        name,
		fetchPath:   cfg.FetchPath,
		publishPath: cfg.PublishPath,
		maxItems:    cfg.MaxItems,
		translate:   newRecordTranslator(cfg.DefaultCategory),
		client:      cfg.Client,
		logger:      logger.With(slog.String("component", "acl.RemoteSource"), slog.String("source", name)),
	}
}

// Name implements ports.QuoteSource and ports.HealthChecker.
func (s *RemoteSource) Name() string {
	return s.name
}

// FetchBatch implements ports.QuoteSource. Any failure to obtain a
// decodable array is a domain network error.
func (s *RemoteSource) FetchBatch(ctx context.Context) ([]domain.Quote, error) {
	logger := logging.FromContextOr(ctx, s.logger)
	logger.Log(ctx, logging.LevelTrace, "fetching batch", slog.String("path", s.fetchPath))

	body, err := s.Get(ctx, s.fetchPath, "fetch batch")
	if err != nil {
		return nil, err
	}

	records, err := DecodeResponse[[]remoteRecord](body, s.name)
	if err != nil {
		return nil, err
	}

	if s.maxItems > 0 && len(records) > s.maxItems {
		records = records[:s.maxItems]
	}

	batch := make([]domain.Quote, 0, len(records))

	for i := range records {
		q, ok, reason := s.translate(&records[i])
		if !ok {
			logger.WarnContext(ctx, "skipping remote record",
				slog.Int("index", i),
				slog.String("reason", reason),
			)

			continue
		}

		batch = append(batch, q)
	}

	logger.DebugContext(ctx, "fetched batch",
		slog.Int("received", len(records)),
		slog.Int("accepted", len(batch)),
	)

	return batch, nil
}

// Publish implements ports.QuotePublisher. It is a no-op when the source
// has no publish path.
func (s *RemoteSource) Publish(ctx context.Context, q domain.Quote) error {
	if s.publishPath == "" {
		return nil
	}

	body, err := s.PostJSON(ctx, s.publishPath, outboundRecord{
		ID:        q.ID,
		Text:      q.Text,
		Title:     q.Text,
		Category:  q.Category,
		Timestamp: q.Timestamp,
	}, "publish quote")
	if err != nil {
		return err
	}

	_ = body.Close()

	logging.FromContextOr(ctx, s.logger).DebugContext(ctx, "published quote", slog.String("path", s.publishPath))

	return nil
}

// Check implements ports.HealthChecker. An open circuit reports the
// source unhealthy without a request; otherwise the fetch path is probed.
func (s *RemoteSource) Check(ctx context.Context) error {
	if state := s.client.CircuitState(); state == clients.StateOpen {
		return domain.NewNetworkError(s.name, fmt.Sprintf("circuit %s", state))
	}

	body, err := s.Get(ctx, s.fetchPath, "health check")
	if err != nil {
		return err
	}

	return body.Close()
}
