// Package budget defines the pluggable store for planning figures.
//
// A budget is keyed by an opaque selection key (year plus the account
// code set it applies to) and holds one amount per store. The backing
// store is swappable: the server wires either the in-memory store or the
// postgres one depending on configuration.
package budget

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Key builds the canonical budget key for a year and an account code
// selection. The code patterns are joined in sorted order so the same
// selection always yields the same key.
func Key(year int, codes []string) string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	key := fmt.Sprintf("%d", year)
	for _, c := range sorted {
		key += "_" + c
	}
	return key
}

// Store is the budget persistence contract.
type Store interface {
	// Get returns the per-store amounts under a key. A missing key
	// returns an empty map, not an error.
	Get(ctx context.Context, key string) (map[string]float64, error)

	// Set stores one store's amount under a key, creating the key as
	// needed.
	Set(ctx context.Context, key, store string, amount float64) error

	// SetAll replaces the whole mapping under a key.
	SetAll(ctx context.Context, key string, amounts map[string]float64) error

	// Clear removes every amount under a key.
	Clear(ctx context.Context, key string) error

	// Keys lists the known budget keys.
	Keys(ctx context.Context) ([]string, error)
}

// ApplyTemplate writes a flat amount for every given store under a key.
func ApplyTemplate(ctx context.Context, s Store, key string, storeCodes []string, amount float64) error {
	amounts := make(map[string]float64, len(storeCodes))
	for _, sc := range storeCodes {
		amounts[sc] = amount
	}
	return s.SetAll(ctx, key, amounts)
}

// MemoryStore keeps budgets in process memory. Contents do not survive a
// restart; suitable for single-node use and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	budgets map[string]map[string]float64
}

// NewMemoryStore returns an empty in-memory budget store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{budgets: make(map[string]map[string]float64)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]float64, len(m.budgets[key]))
	for sc, amount := range m.budgets[key] {
		out[sc] = amount
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key, store string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.budgets[key] == nil {
		m.budgets[key] = make(map[string]float64)
	}
	m.budgets[key][store] = amount
	return nil
}

func (m *MemoryStore) SetAll(_ context.Context, key string, amounts map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	replacement := make(map[string]float64, len(amounts))
	for sc, amount := range amounts {
		replacement[sc] = amount
	}
	m.budgets[key] = replacement
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.budgets, key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.budgets))
	for k := range m.budgets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
