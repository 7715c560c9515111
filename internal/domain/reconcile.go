package domain

// IdentityKey derives the merge keys of a quote in lookup order. A remote
// quote matches the local quote registered under its first known key.
type IdentityKey func(q Quote) []string

// IdentityByText keys quotes by their exact text.
func IdentityByText(q Quote) []string {
	return []string{textKey(q)}
}

// IdentityByID keys quotes by their stable ID, then by text. An ID only
// matches when a local quote carries the same one, so records with and
// without IDs still pair up on text.
func IdentityByID(q Quote) []string {
	if q.ID != "" {
		return []string{"id:" + q.ID, textKey(q)}
	}

	return []string{textKey(q)}
}

func textKey(q Quote) string {
	return "text:" + q.Text
}

// Conflict records a local quote whose category was replaced by a newer
// remote version.
type Conflict struct {
	Text            string
	LocalCategory   string
	RemoteCategory  string
	LocalTimestamp  int64
	RemoteTimestamp int64
}

// ReconcileResult reports what one reconciliation changed.
type ReconcileResult struct {
	Added     int
	Updated   int
	Conflicts []Conflict
}

// Changed reports whether the store was mutated.
func (r ReconcileResult) Changed() bool {
	return r.Added > 0 || r.Updated > 0
}

// Merge accumulates another result into r.
func (r *ReconcileResult) Merge(other ReconcileResult) {
	r.Added += other.Added
	r.Updated += other.Updated
	r.Conflicts = append(r.Conflicts, other.Conflicts...)
}

// Reconciler merges remote batches into a QuoteStore with last-write-wins
// semantics. Ties favor the local record.
type Reconciler struct {
	key IdentityKey
}

// NewReconciler creates a reconciler. A nil key means IdentityByText.
func NewReconciler(key IdentityKey) *Reconciler {
	if key == nil {
		key = IdentityByText
	}

	return &Reconciler{key: key}
}

// Reconcile applies batch to store in one pass and returns the counts.
// Unknown quotes are appended verbatim; known ones take the remote category
// and timestamp only when the remote timestamp is strictly newer.
func (r *Reconciler) Reconcile(store *QuoteStore, batch []Quote) ReconcileResult {
	var result ReconcileResult

	if len(batch) == 0 {
		return result
	}

	store.mu.Lock()

	index := make(map[string]int, len(store.quotes))
	register := func(q Quote, pos int) {
		for _, k := range r.key(q) {
			if _, dup := index[k]; !dup {
				index[k] = pos
			}
		}
	}

	for i, q := range store.quotes {
		register(q, i)
	}

	for _, remote := range batch {
		pos, ok := r.lookup(index, remote)
		if !ok {
			store.quotes = append(store.quotes, remote)
			register(remote, len(store.quotes)-1)
			result.Added++

			continue
		}

		local := &store.quotes[pos]
		if remote.Timestamp <= local.Timestamp {
			continue
		}

		if local.Category != remote.Category {
			result.Conflicts = append(result.Conflicts, Conflict{
				Text:            local.Text,
				LocalCategory:   local.Category,
				RemoteCategory:  remote.Category,
				LocalTimestamp:  local.Timestamp,
				RemoteTimestamp: remote.Timestamp,
			})
		}

		local.Category = remote.Category
		local.Timestamp = remote.Timestamp
		result.Updated++
	}

	store.mu.Unlock()

	if result.Changed() {
		store.notify()
	}

	return result
}

func (r *Reconciler) lookup(index map[string]int, q Quote) (int, bool) {
	for _, k := range r.key(q) {
		if pos, ok := index[k]; ok {
			return pos, true
		}
	}

	return 0, false
}
