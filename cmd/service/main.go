// Package main is the entry point for the quote service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/http"
	"github.com/jsamuelsen/quote-keeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-keeper/internal/app"
	"github.com/jsamuelsen/quote-keeper/internal/bootstrap"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/config"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
	"github.com/jsamuelsen/quote-keeper/internal/platform/telemetry"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := bootstrap.NewLogger(cfg, os.Stdout)
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	syncMetrics, err := telemetry.NewSyncMetrics()
	if err != nil {
		return fmt.Errorf("creating sync metrics: %w", err)
	}

	// 5. Restore the quote collection and wire the remote sources
	components, err := bootstrap.Build(ctx, cfg, logger, syncMetrics)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := components.Close(); closeErr != nil {
			logger.Error("closing snapshot store", slog.Any("error", closeErr))
		}
	}()

	service := components.Service

	unsubscribe := service.Subscribe(func(quotes []domain.Quote) {
		logger.Info("quote collection changed", slog.Int("count", len(quotes)))
	})
	defer unsubscribe()

	if err := telemetry.RegisterStoreGauges(nil, service.Count, func() int {
		return len(service.Categories(ctx))
	}); err != nil {
		return err
	}

	// 6. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(components.Health, buildInfo)
	quoteHandler := handlers.NewQuoteHandler(service)

	// 7. Create HTTP server and router
	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.NewDefaultRouterConfig(logger, &cfg.App, healthHandler, quoteHandler))

	// 8. Run the server and the sync scheduler until a signal arrives
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.Sync.Enabled && len(components.Sources) > 0 {
		scheduler := app.NewSyncScheduler(service, app.SyncSchedulerConfig{
			Interval:   cfg.Sync.Interval,
			RunOnStart: cfg.Sync.OnStart,
			Logger:     logger,
		})

		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
