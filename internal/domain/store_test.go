package domain

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock returns increasing timestamps starting at start.
func stepClock(start int64) ClockFunc {
	var mu sync.Mutex

	next := start

	return func() int64 {
		mu.Lock()
		defer mu.Unlock()

		now := next
		next++

		return now
	}
}

func fixedRandom(v float64) RandomFunc {
	return func() float64 { return v }
}

func seededStore(t *testing.T, opts ...StoreOption) *QuoteStore {
	t.Helper()

	return NewStore([]Quote{
		{Text: "a", Category: "Life", Timestamp: 1},
		{Text: "b", Category: "Motivation", Timestamp: 2},
		{Text: "c", Category: "Life", Timestamp: 3},
		{Text: "d", Category: "life", Timestamp: 4},
	}, opts...)
}

func TestNewStore_CopiesInput(t *testing.T) {
	input := []Quote{{Text: "a", Category: "x", Timestamp: 1}}
	store := NewStore(input)

	input[0].Text = "mutated"

	assert.Equal(t, "a", store.ListAll()[0].Text)
}

func TestQuoteStore_Add(t *testing.T) {
	store := seededStore(t, WithClock(stepClock(100)))
	before := store.ListAll()

	q, err := store.Add("  Stay hungry.  ", "\tWisdom ")

	require.NoError(t, err)
	assert.Equal(t, Quote{Text: "Stay hungry.", Category: "Wisdom", Timestamp: 100}, q)

	after := store.ListAll()
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, q, after[len(after)-1])
	assert.GreaterOrEqual(t, q.Timestamp, int64(100))
}

func TestQuoteStore_Add_AllowsDuplicates(t *testing.T) {
	store := NewStore(nil)

	_, err := store.Add("same", "x")
	require.NoError(t, err)
	_, err = store.Add("same", "x")
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
}

func TestQuoteStore_Add_Validation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		field    string
	}{
		{name: "empty text", text: "", category: "x", field: "text"},
		{name: "empty category", text: "x", category: "", field: "category"},
		{name: "whitespace text", text: "   ", category: "x", field: "text"},
		{name: "both empty", text: "", category: "", field: "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t)
			before := store.ListAll()

			notified := false
			store.OnChange(func([]Quote) { notified = true })

			_, err := store.Add(tt.text, tt.category)

			require.Error(t, err)
			assert.True(t, IsValidation(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, before, store.ListAll())
			assert.False(t, notified)
		})
	}
}

func TestQuoteStore_Add_AssignsIDs(t *testing.T) {
	n := 0
	store := NewStore(nil, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))

	q, err := store.Add("x", "y")

	require.NoError(t, err)
	assert.Equal(t, "id-1", q.ID)
}

func TestQuoteStore_SerializeLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		quotes []Quote
	}{
		{name: "empty", quotes: nil},
		{name: "seeds", quotes: DefaultQuotes(42)},
		{
			name: "unicode, duplicates and ids",
			quotes: []Quote{
				{Text: "“Ünïcödé” <b>&</b>", Category: "Odd", Timestamp: -5},
				{Text: "dup", Category: "A", Timestamp: 1},
				{Text: "dup", Category: "B", Timestamp: 2, ID: "f3b1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(tt.quotes)

			data, err := store.Serialize()
			require.NoError(t, err)

			loaded, err := LoadStore(data, WithClock(ClockFunc(func() int64 { return 999 })))
			require.NoError(t, err)

			assert.Equal(t, store.ListAll(), loaded.ListAll())
		})
	}
}

func TestLoadStore_Malformed(t *testing.T) {
	store, err := LoadStore([]byte(`{"text":"x"}`))

	require.Error(t, err)
	assert.True(t, IsFormat(err))
	assert.Nil(t, store)
}

func TestQuoteStore_Export_IsIndented(t *testing.T) {
	store := NewStore([]Quote{{Text: "Q", Category: "A", Timestamp: 1}})

	data, err := store.Export()

	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {")

	back, err := DecodeQuotes(data, 0)
	require.NoError(t, err)
	assert.Equal(t, store.ListAll(), back)
}

func TestQuoteStore_Categories(t *testing.T) {
	store := seededStore(t)

	assert.Equal(t, []string{"Life", "Motivation", "life"}, store.Categories())
	assert.Empty(t, NewStore(nil).Categories())
}

func TestQuoteStore_FilterByCategory(t *testing.T) {
	store := seededStore(t)

	tests := []struct {
		name     string
		category string
		texts    []string
	}{
		{name: "all returns every record in order", category: CategoryAll, texts: []string{"a", "b", "c", "d"}},
		{name: "exact match preserves order", category: "Life", texts: []string{"a", "c"}},
		{name: "match is case sensitive", category: "life", texts: []string{"d"}},
		{name: "no match is empty", category: "Humor", texts: []string{}},
		{name: "empty category is not all", category: "", texts: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.FilterByCategory(tt.category)

			texts := make([]string, 0, len(got))
			for _, q := range got {
				if tt.category != CategoryAll {
					assert.Equal(t, tt.category, q.Category)
				}

				texts = append(texts, q.Text)
			}

			assert.Equal(t, tt.texts, texts)
		})
	}
}

func TestQuoteStore_PickRandom(t *testing.T) {
	candidates := []Quote{{Text: "a"}, {Text: "b"}, {Text: "c"}}

	tests := []struct {
		name     string
		random   float64
		expected string
	}{
		{name: "lowest", random: 0, expected: "a"},
		{name: "middle", random: 0.5, expected: "b"},
		{name: "just below one", random: 0.9999, expected: "c"},
		{name: "out of range high is clamped", random: 1, expected: "c"},
		{name: "out of range low is clamped", random: -0.5, expected: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(nil, WithRandom(fixedRandom(tt.random)))

			q, ok := store.PickRandom(candidates)

			require.True(t, ok)
			assert.Equal(t, tt.expected, q.Text)
		})
	}
}

func TestQuoteStore_PickRandom_EmptyAndSingle(t *testing.T) {
	store := NewStore(nil)

	_, ok := store.PickRandom(nil)
	assert.False(t, ok)

	_, ok = store.PickRandom([]Quote{})
	assert.False(t, ok)

	only := Quote{Text: "only", Category: "x", Timestamp: 1}
	for range 50 {
		q, ok := store.PickRandom([]Quote{only})
		require.True(t, ok)
		assert.Equal(t, only, q)
	}
}

func TestQuoteStore_Merge(t *testing.T) {
	store := seededStore(t, WithClock(ClockFunc(func() int64 { return 77 })))
	before := store.ListAll()

	added, err := store.Merge([]byte(`[{"text":"a","category":"Other","timestamp":1},{"text":"new","category":"X"}]`))

	require.NoError(t, err)
	assert.Equal(t, 2, added)

	after := store.ListAll()
	require.Len(t, after, len(before)+2)
	assert.Equal(t, Quote{Text: "a", Category: "Other", Timestamp: 1}, after[len(before)])
	assert.Equal(t, Quote{Text: "new", Category: "X", Timestamp: 77}, after[len(before)+1])
}

func TestQuoteStore_Merge_MalformedIsAtomic(t *testing.T) {
	inputs := []string{
		`{not an array}`,
		`[{"text":"ok","category":"x"},{"text":"","category":"x"}]`,
		`[{"text":"ok","category":"x"},42]`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			store := seededStore(t)
			before := store.ListAll()

			added, err := store.Merge([]byte(input))

			require.Error(t, err)
			assert.True(t, IsFormat(err))
			assert.Zero(t, added)
			assert.Equal(t, before, store.ListAll())
		})
	}
}

func TestQuoteStore_OnChange(t *testing.T) {
	store := NewStore(nil)

	var calls [][]Quote

	cancel := store.OnChange(func(quotes []Quote) {
		calls = append(calls, quotes)
	})

	_, err := store.Add("x", "y")
	require.NoError(t, err)

	_, err = store.Merge([]byte(`[]`))
	require.NoError(t, err)

	require.Len(t, calls, 1, "empty import does not notify")
	assert.Len(t, calls[0], 1)

	cancel()

	_, err = store.Add("z", "y")
	require.NoError(t, err)
	assert.Len(t, calls, 1)
}

func TestQuoteStore_OnChange_Order(t *testing.T) {
	store := NewStore(nil)

	var order []string

	store.OnChange(func([]Quote) { order = append(order, "first") })
	cancelSecond := store.OnChange(func([]Quote) { order = append(order, "second") })
	store.OnChange(func([]Quote) { order = append(order, "third") })
	cancelSecond()

	_, err := store.Add("x", "y")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "third"}, order)
}

func TestQuoteStore_ListenerMayReadStore(t *testing.T) {
	store := NewStore(nil)

	var seen int

	store.OnChange(func([]Quote) {
		seen = store.Len()
	})

	_, err := store.Add("x", "y")
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestQuoteStore_ConcurrentAdds(t *testing.T) {
	store := NewStore(nil)

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Go(func() {
			_, err := store.Add(fmt.Sprintf("q%d", i), "c")
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	assert.Equal(t, 20, store.Len())
}

func TestNewSeededStore(t *testing.T) {
	store := NewSeededStore(WithClock(ClockFunc(func() int64 { return 5 })))

	assert.Equal(t, DefaultQuotes(5), store.ListAll())
	assert.Equal(t, int64(5), store.Now())
	assert.Len(t, store.Categories(), 3)
}
