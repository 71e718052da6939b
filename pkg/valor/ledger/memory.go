package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	txs     map[uuid.UUID]Transaction
	goals   map[string]Goal
	budgets map[string]Budget
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txs:     map[uuid.UUID]Transaction{},
		goals:   map[string]Goal{},
		budgets: map[string]Budget{},
	}
}

func (m *MemoryStore) Add(_ context.Context, t Transaction) error {
	if err := Validate(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs[t.ID] = t
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.txs[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return t, nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]Transaction, error) {
	m.mu.RLock()
	out := make([]Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return ErrNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *MemoryStore) SaveGoal(_ context.Context, g Goal) error {
	if err := Validate(g); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.Name] = g
	return nil
}

func (m *MemoryStore) Goals(context.Context) ([]Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Goal, 0, len(m.goals))
	for _, g := range m.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) SaveBudget(_ context.Context, b Budget) error {
	if err := Validate(b); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.Category] = b
	return nil
}

func (m *MemoryStore) Budgets(context.Context) ([]Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Budget, 0, len(m.budgets))
	for _, b := range m.budgets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
