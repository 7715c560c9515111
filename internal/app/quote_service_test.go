package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/mocks"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(ms int64) domain.StoreOption {
	return domain.WithClock(domain.ClockFunc(func() int64 { return ms }))
}

// memorySnapshots is a SnapshotStore backed by a byte slice.
type memorySnapshots struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

func (m *memorySnapshots) Read(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, domain.NewNotFoundError("snapshot", "quotes")
	}

	return append([]byte(nil), m.data...), nil
}

func (m *memorySnapshots) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = append([]byte(nil), data...)
	m.writes++

	return nil
}

func newService(t *testing.T, snapshots ports.SnapshotStore, sources ...ports.QuoteSource) *QuoteService {
	t.Helper()

	svc, err := NewQuoteService(context.Background(), QuoteServiceConfig{
		Snapshots:    snapshots,
		Sources:      sources,
		StoreOptions: []domain.StoreOption{fixedClock(100)},
		Logger:       discardLogger(),
	})
	require.NoError(t, err)

	return svc
}

func namedSource(t *testing.T, name string) *mocks.MockQuoteSource {
	t.Helper()

	src := mocks.NewMockQuoteSource(t)
	src.EXPECT().Name().Return(name).Maybe()

	return src
}

func TestNewQuoteService_PanicsWithoutSnapshots(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = NewQuoteService(context.Background(), QuoteServiceConfig{Logger: discardLogger()})
	})
}

func TestNewQuoteService_Restore(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockSnapshotStore)
		expected  []domain.Quote
	}{
		{
			name: "restores stored snapshot",
			setupMock: func(m *mocks.MockSnapshotStore) {
				m.EXPECT().Read(mock.Anything).
					Return([]byte(`[{"text":"Q","category":"A","timestamp":1}]`), nil)
			},
			expected: []domain.Quote{{Text: "Q", Category: "A", Timestamp: 1}},
		},
		{
			name: "missing snapshot seeds and writes defaults",
			setupMock: func(m *mocks.MockSnapshotStore) {
				m.EXPECT().Read(mock.Anything).
					Return(nil, domain.NewNotFoundError("snapshot", "quotes"))
				m.EXPECT().Write(mock.Anything, mock.Anything).Return(nil).Once()
			},
			expected: domain.DefaultQuotes(100),
		},
		{
			name: "corrupt snapshot falls back to defaults without writing",
			setupMock: func(m *mocks.MockSnapshotStore) {
				m.EXPECT().Read(mock.Anything).Return([]byte(`{oops`), nil)
			},
			expected: domain.DefaultQuotes(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshots := mocks.NewMockSnapshotStore(t)
			tt.setupMock(snapshots)

			svc := newService(t, snapshots)

			assert.Equal(t, tt.expected, svc.ListQuotes(context.Background(), domain.CategoryAll))
		})
	}
}

func TestNewQuoteService_ReadFailure(t *testing.T) {
	snapshots := mocks.NewMockSnapshotStore(t)
	snapshots.EXPECT().Read(mock.Anything).Return(nil, errors.New("disk on fire"))

	svc, err := NewQuoteService(context.Background(), QuoteServiceConfig{
		Snapshots: snapshots,
		Logger:    discardLogger(),
	})

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestQuoteService_AddQuote(t *testing.T) {
	snapshots := &memorySnapshots{}
	publisher := mocks.NewMockQuotePublisher(t)

	svc, err := NewQuoteService(context.Background(), QuoteServiceConfig{
		Snapshots:    snapshots,
		Publisher:    publisher,
		StoreOptions: []domain.StoreOption{fixedClock(100)},
		Logger:       discardLogger(),
	})
	require.NoError(t, err)

	expected := domain.Quote{Text: "Stay curious.", Category: "Wisdom", Timestamp: 100}
	publisher.EXPECT().Publish(mock.Anything, expected).Return(errors.New("remote down")).Once()

	q, err := svc.AddQuote(context.Background(), AddQuoteInput{Text: " Stay curious. ", Category: "Wisdom"})

	require.NoError(t, err, "publish failures are not surfaced")
	assert.Equal(t, expected, q)
	assert.Equal(t, 4, svc.Count())

	persisted, err := domain.DecodeQuotes(snapshots.data, 0)
	require.NoError(t, err)
	assert.Equal(t, svc.ListQuotes(context.Background(), domain.CategoryAll), persisted)
}

func TestQuoteService_AddQuote_Validation(t *testing.T) {
	snapshots := &memorySnapshots{}
	svc := newService(t, snapshots)
	writes := snapshots.writes

	_, err := svc.AddQuote(context.Background(), AddQuoteInput{Text: "  ", Category: "x"})

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepPerform, step)
	assert.Equal(t, writes, snapshots.writes)
	assert.Equal(t, 3, svc.Count())
}

func TestQuoteService_AddQuote_PersistFailureKeepsQuote(t *testing.T) {
	snapshots := mocks.NewMockSnapshotStore(t)
	snapshots.EXPECT().Read(mock.Anything).Return([]byte(`[]`), nil)
	snapshots.EXPECT().Write(mock.Anything, mock.Anything).Return(errors.New("read-only")).Once()

	svc := newService(t, snapshots)

	_, err := svc.AddQuote(context.Background(), AddQuoteInput{Text: "Q", Category: "A"})

	require.Error(t, err)

	step, ok := GetExecutionStep(err)
	require.True(t, ok)
	assert.Equal(t, StepArchive, step)
	assert.Equal(t, 1, svc.Count(), "the in-memory store is not rolled back")
}

func TestQuoteService_ImportQuotes(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedAdded int
		expectedCount int
		writes        int
		errCheck      func(error) bool
	}{
		{
			name:          "appends records",
			input:         `[{"text":"a","category":"X"},{"text":"b","category":"Y","timestamp":3}]`,
			expectedAdded: 2,
			expectedCount: 5,
			writes:        1,
		},
		{
			name:          "empty array writes nothing",
			input:         `[]`,
			expectedCount: 3,
		},
		{
			name:          "malformed document changes nothing",
			input:         `[{"text":"a"}]`,
			expectedCount: 3,
			errCheck:      domain.IsFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshots := &memorySnapshots{}
			svc := newService(t, snapshots)
			before := snapshots.writes

			added, err := svc.ImportQuotes(context.Background(), []byte(tt.input))

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				step, _ := GetExecutionStep(err)
				assert.Equal(t, StepPerform, step)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectedAdded, added)
			assert.Equal(t, tt.expectedCount, svc.Count())
			assert.Equal(t, tt.writes, snapshots.writes-before)
		})
	}
}

func TestQuoteService_ExportQuotes(t *testing.T) {
	svc := newService(t, &memorySnapshots{})

	data, err := svc.ExportQuotes(context.Background())
	require.NoError(t, err)

	back, err := domain.DecodeQuotes(data, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQuotes(100), back)
}

func TestQuoteService_RandomQuote(t *testing.T) {
	svc := newService(t, &memorySnapshots{})

	q, err := svc.RandomQuote(context.Background(), "Life")
	require.NoError(t, err)
	assert.Equal(t, "Life", q.Category)

	_, err = svc.RandomQuote(context.Background(), "Humor")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestQuoteService_Categories(t *testing.T) {
	svc := newService(t, &memorySnapshots{})

	assert.Equal(t, []string{"Motivation", "Life", "Perseverance"}, svc.Categories(context.Background()))
}

func TestQuoteService_Subscribe(t *testing.T) {
	svc := newService(t, &memorySnapshots{})

	var seen []int

	cancel := svc.Subscribe(func(quotes []domain.Quote) { seen = append(seen, len(quotes)) })

	_, err := svc.AddQuote(context.Background(), AddQuoteInput{Text: "Q", Category: "A"})
	require.NoError(t, err)

	cancel()

	_, err = svc.AddQuote(context.Background(), AddQuoteInput{Text: "R", Category: "A"})
	require.NoError(t, err)

	assert.Equal(t, []int{4}, seen)
}

func TestQuoteService_Sync(t *testing.T) {
	snapshots := &memorySnapshots{data: []byte(`[{"text":"Q","category":"A","timestamp":10}]`)}

	src := namedSource(t, "origin")
	src.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{
		{Text: "Q", Category: "B", Timestamp: 11},
		{Text: "R", Category: "Server", Timestamp: 0},
	}, nil)

	svc := newService(t, snapshots, src)

	result, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, 1, snapshots.writes)

	second, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, 1, snapshots.writes, "unchanged sync does not persist")
}

func TestQuoteService_Sync_NetworkErrorSurfaced(t *testing.T) {
	snapshots := &memorySnapshots{data: []byte(`[]`)}

	down := namedSource(t, "down")
	down.EXPECT().FetchBatch(mock.Anything).Return(nil, domain.NewNetworkError("down", "connection refused"))

	up := namedSource(t, "up")
	up.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{{Text: "Q", Category: "S"}}, nil)

	svc := newService(t, snapshots, down, up)

	result, err := svc.Sync(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, 2, result.Sources)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Added, "healthy sources are still applied")
	assert.Equal(t, 1, svc.Count())
}

func TestQuoteService_Sync_NoSources(t *testing.T) {
	svc := newService(t, &memorySnapshots{})

	result, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Sources)
	assert.False(t, result.Changed())
}

func TestQuoteService_Sync_SourcesAppliedInOrder(t *testing.T) {
	first := namedSource(t, "first")
	first.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{{Text: "Q", Category: "one", Timestamp: 5}}, nil)

	second := namedSource(t, "second")
	second.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{{Text: "Q", Category: "two", Timestamp: 5}}, nil)

	svc := newService(t, &memorySnapshots{data: []byte(`[]`)}, first, second)

	result, err := svc.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 0, result.Updated, "equal timestamp keeps the first arrival")
	assert.Equal(t, "one", svc.ListQuotes(context.Background(), domain.CategoryAll)[0].Category)
}
