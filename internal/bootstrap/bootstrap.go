// Package bootstrap assembles the quote service from configuration. Both
// the HTTP service and the quotectl CLI build their object graph here.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/badgerstore"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
	"github.com/jsamuelsen/quote-keeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// Components is the assembled object graph.
type Components struct {
	Service *app.QuoteService
	Store   *badgerstore.Store
	Sources []*acl.RemoteSource
	Health  *ports.DefaultHealthRegistry
}

// NewLogger builds the process logger from the log section, writing
// terminal output to w.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, w)
}

// Build opens the snapshot store, creates one remote source per
// services.quotes entry and restores the quote service. The first source
// with a publish path receives newly added quotes. Metrics may be nil.
//
// The caller owns the returned components and must Close them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *telemetry.SyncMetrics) (*Components, error) {
	store, err := badgerstore.Open(badgerstore.Config{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
		Key:      cfg.Store.Key,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	c := &Components{
		Store:  store,
		Health: ports.NewHealthRegistry(),
	}

	if err := c.Health.Register(store); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	var (
		sources   []ports.QuoteSource
		publisher ports.QuotePublisher
	)

	for _, sc := range cfg.Services.Quotes {
		src, err := newRemoteSource(cfg, sc, logger)
		if err != nil {
			return nil, errors.Join(err, store.Close())
		}

		if err := c.Health.Register(src); err != nil {
			return nil, errors.Join(err, store.Close())
		}

		c.Sources = append(c.Sources, src)
		sources = append(sources, src)

		if publisher == nil && sc.PublishPath != "" {
			publisher = src
		}
	}

	identity, storeOpts := identityMode(cfg.Sync.Identity)

	c.Service, err = app.NewQuoteService(ctx, app.QuoteServiceConfig{
		Snapshots:    store,
		Sources:      sources,
		Publisher:    publisher,
		Identity:     identity,
		StoreOptions: storeOpts,
		MaxParallel:  cfg.Sync.MaxParallel,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("restoring quotes: %w", err), store.Close())
	}

	return c, nil
}

// Close releases the snapshot store.
func (c *Components) Close() error {
	return c.Store.Close()
}

func newRemoteSource(cfg *config.Config, sc config.QuoteSourceConfig, logger *slog.Logger) (*acl.RemoteSource, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     sc.BaseURL,
		ServiceName: sc.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", sc.Name, err)
	}

	return acl.NewRemoteSource(acl.RemoteSourceConfig{
		Client:          client,
		Name:            sc.Name,
		FetchPath:       sc.FetchPath,
		PublishPath:     sc.PublishPath,
		DefaultCategory: sc.DefaultCategory,
		MaxItems:        sc.MaxItems,
		Logger:          logger,
	}), nil
}

// identityMode maps sync.identity to the merge key. In id mode new quotes
// get a UUID so they can be matched after a text edit.
func identityMode(mode string) (domain.IdentityKey, []domain.StoreOption) {
	if mode == config.IdentityID {
		return domain.IdentityByID, []domain.StoreOption{domain.WithIDGenerator(uuid.NewString)}
	}

	return domain.IdentityByText, nil
}
