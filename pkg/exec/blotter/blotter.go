package blotter

import (
	"context"
	"errors"
	"sync"

	"github.com/joripage/execution-core/pkg/exec/model"
)

var errEntryNotFound = errors.New("blotter entry not found")

// Blotter is the append-only audit log of order submissions and status
// transitions. Rows are immutable except for Status, which may be updated
// in place for a given row id.
type Blotter interface {
	Append(ctx context.Context, entry *model.BlotterEntry) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error
	Entry(ctx context.Context, id int64) (*model.BlotterEntry, error)
	Trail(ctx context.Context, orderID string) ([]*model.BlotterEntry, error)
}

// InMemoryBlotter keeps the audit log in process memory. Useful on its
// own for tests and as the inner log behind the NATS publisher.
type InMemoryBlotter struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[int64]*model.BlotterEntry
	byOrder map[string][]int64
}

func NewInMemoryBlotter() *InMemoryBlotter {
	return &InMemoryBlotter{
		nextID:  1,
		entries: make(map[int64]*model.BlotterEntry),
		byOrder: make(map[string][]int64),
	}
}

func (b *InMemoryBlotter) Append(_ context.Context, entry *model.BlotterEntry) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *entry
	cp.ID = b.nextID
	b.nextID++
	b.entries[cp.ID] = &cp
	b.byOrder[cp.OrderID] = append(b.byOrder[cp.OrderID], cp.ID)
	return cp.ID, nil
}

func (b *InMemoryBlotter) UpdateStatus(_ context.Context, id int64, status model.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[id]
	if !ok {
		return errEntryNotFound
	}
	entry.Status = status
	return nil
}

func (b *InMemoryBlotter) Entry(_ context.Context, id int64) (*model.BlotterEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[id]
	if !ok {
		return nil, errEntryNotFound
	}
	cp := *entry
	return &cp, nil
}

func (b *InMemoryBlotter) Trail(_ context.Context, orderID string) ([]*model.BlotterEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := b.byOrder[orderID]
	trail := make([]*model.BlotterEntry, 0, len(ids))
	for _, id := range ids {
		cp := *b.entries[id]
		trail = append(trail, &cp)
	}
	return trail, nil
}
