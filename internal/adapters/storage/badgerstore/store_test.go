package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

func openMemory(t *testing.T) *Store {
	t.Helper()

	s, err := Open(Config{InMemory: true, Key: "quotes"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_ReadBeforeWrite(t *testing.T) {
	s := openMemory(t)

	_, err := s.Read(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_WriteThenRead(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, []byte(`[{"text":"a","category":"b","timestamp":1}]`)))
	require.NoError(t, s.Write(ctx, []byte(`[]`)))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got), "last write wins")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []byte(`["persisted"]`)))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `["persisted"]`, string(got))
}

func TestStore_KeysAreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Config{Path: dir, Key: "a"})
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, []byte(`["a"]`)))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir, Key: "b"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Read(ctx)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_CancelledContext(t *testing.T) {
	s := openMemory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Write(ctx, []byte(`[]`)), context.Canceled)

	_, err := s.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_Check(t *testing.T) {
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)

	assert.Equal(t, "snapshot-store", s.Name())
	require.NoError(t, s.Check(context.Background()), "empty store is healthy")

	require.NoError(t, s.Close())
	assert.Error(t, s.Check(context.Background()))
}
