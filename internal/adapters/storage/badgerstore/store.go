// Package badgerstore persists the serialized quote collection in BadgerDB.
// The whole collection lives under a single key, written atomically.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

const (
	checkerName = "snapshot-store"
	defaultKey  = "quotes"
)

// Config configures a Store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the database in memory only; nothing survives Close.
	InMemory bool

	// Key holds the serialized collection.
	Key string

	Logger *slog.Logger
}

// Store implements ports.SnapshotStore and ports.HealthChecker.
type Store struct {
	db     *badger.DB
	key    []byte
	logger *slog.Logger
}

// Open opens or creates the database.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLoggingLevel(badger.ERROR)

	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", cfg.Path, err)
	}

	key := cfg.Key
	if key == "" {
		key = defaultKey
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     db,
		key:    []byte(key),
		logger: logger.With(slog.String("component", "badgerstore.Store")),
	}, nil
}

// Read returns the last written snapshot, or a domain not found error if
// none was ever written.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)

		return err
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, domain.NewNotFoundError("snapshot", string(s.key))
	case err != nil:
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return data, nil
}

// Write replaces the snapshot.
func (s *Store) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, data)
	})
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	s.logger.DebugContext(ctx, "snapshot written", slog.Int("bytes", len(data)))

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return checkerName
}

// Check implements ports.HealthChecker by running a read transaction.
// A missing snapshot is healthy.
func (s *Store) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.db.IsClosed() {
		return errors.New("database closed")
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(s.key)
		return err
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
