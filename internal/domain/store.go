package domain

import (
	"strings"
	"sync"
)

// ChangeListener receives the full listing after a mutation.
type ChangeListener func(quotes []Quote)

// StoreOption configures a QuoteStore.
type StoreOption func(*QuoteStore)

// WithClock sets the timestamp source. Defaults to SystemClock.
func WithClock(clock Clock) StoreOption {
	return func(s *QuoteStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRandom sets the random source used by PickRandom.
func WithRandom(random RandomSource) StoreOption {
	return func(s *QuoteStore) {
		if random != nil {
			s.random = random
		}
	}
}

// WithIDGenerator makes Add assign a stable ID to every new quote.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *QuoteStore) {
		s.newID = newID
	}
}

// QuoteStore owns the ordered local collection of quotes.
// All methods are safe for concurrent use; each one is atomic.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []Quote

	clock  Clock
	random RandomSource
	newID  func() string

	listenersMu  sync.Mutex
	listeners    map[int]ChangeListener
	listenerSeq  int
	listenerKeys []int
}

// NewStore creates a store holding a copy of quotes.
func NewStore(quotes []Quote, opts ...StoreOption) *QuoteStore {
	s := &QuoteStore{
		quotes:    append([]Quote(nil), quotes...),
		clock:     SystemClock{},
		random:    defaultRandom{},
		listeners: make(map[int]ChangeListener),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewSeededStore creates a store holding DefaultQuotes stamped with the
// store clock.
func NewSeededStore(opts ...StoreOption) *QuoteStore {
	s := NewStore(nil, opts...)
	s.quotes = DefaultQuotes(s.clock.Now())

	return s
}

// LoadStore decodes a persisted snapshot into a new store.
// On a *FormatError callers are expected to fall back to DefaultQuotes.
func LoadStore(data []byte, opts ...StoreOption) (*QuoteStore, error) {
	s := NewStore(nil, opts...)

	quotes, err := DecodeQuotes(data, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.quotes = quotes

	return s, nil
}

// Now returns the store clock reading in Unix milliseconds.
func (s *QuoteStore) Now() int64 {
	return s.clock.Now()
}

// Serialize encodes every record compactly for persistence.
func (s *QuoteStore) Serialize() ([]byte, error) {
	return EncodeQuotes(s.ListAll(), false)
}

// Export encodes every record pretty-printed for a quotes.json download.
func (s *QuoteStore) Export() ([]byte, error) {
	return EncodeQuotes(s.ListAll(), true)
}

// Add appends a new quote stamped with the current time.
// Both fields are trimmed; an empty field is a *ValidationError.
func (s *QuoteStore) Add(text, category string) (Quote, error) {
	text = strings.TrimSpace(text)
	category = strings.TrimSpace(category)

	if text == "" {
		return Quote{}, NewValidationError("text", "must not be empty")
	}

	if category == "" {
		return Quote{}, NewValidationError("category", "must not be empty")
	}

	q := Quote{
		Text:      text,
		Category:  category,
		Timestamp: s.clock.Now(),
	}

	if s.newID != nil {
		q.ID = s.newID()
	}

	s.mu.Lock()
	s.quotes = append(s.quotes, q)
	s.mu.Unlock()

	s.notify()

	return q, nil
}

// Merge appends every record of an imported document verbatim and
// returns how many were added. A malformed document changes nothing.
func (s *QuoteStore) Merge(imported []byte) (int, error) {
	quotes, err := DecodeQuotes(imported, s.clock.Now())
	if err != nil {
		return 0, err
	}

	if len(quotes) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	s.quotes = append(s.quotes, quotes...)
	s.mu.Unlock()

	s.notify()

	return len(quotes), nil
}

// ListAll returns a copy of every record in insertion order.
func (s *QuoteStore) ListAll() []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Quote{}, s.quotes...)
}

// Len returns the number of records.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Categories returns the distinct categories in order of first occurrence.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.quotes))
	out := make([]string, 0)

	for _, q := range s.quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// FilterByCategory returns the records whose category equals category
// exactly, or every record for CategoryAll. Order is preserved.
func (s *QuoteStore) FilterByCategory(category string) []Quote {
	if category == CategoryAll {
		return s.ListAll()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Quote, 0)

	for _, q := range s.quotes {
		if q.Category == category {
			out = append(out, q)
		}
	}

	return out
}

// PickRandom selects one candidate uniformly. It reports false when
// candidates is empty.
func (s *QuoteStore) PickRandom(candidates []Quote) (Quote, bool) {
	if len(candidates) == 0 {
		return Quote{}, false
	}

	idx := int(s.random.Float64() * float64(len(candidates)))
	if idx < 0 {
		idx = 0
	}

	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}

	return candidates[idx], true
}

// OnChange registers a listener for mutations and returns a function that
// removes it. Listeners run synchronously, after the store lock is released.
func (s *QuoteStore) OnChange(listener ChangeListener) (cancel func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	key := s.listenerSeq
	s.listenerSeq++
	s.listeners[key] = listener
	s.listenerKeys = append(s.listenerKeys, key)

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()

		delete(s.listeners, key)

		for i, k := range s.listenerKeys {
			if k == key {
				s.listenerKeys = append(s.listenerKeys[:i], s.listenerKeys[i+1:]...)
				break
			}
		}
	}
}

func (s *QuoteStore) notify() {
	s.listenersMu.Lock()
	listeners := make([]ChangeListener, 0, len(s.listenerKeys))

	for _, k := range s.listenerKeys {
		listeners = append(listeners, s.listeners[k])
	}
	s.listenersMu.Unlock()

	if len(listeners) == 0 {
		return
	}

	snapshot := s.ListAll()
	for _, l := range listeners {
		l(snapshot)
	}
}
