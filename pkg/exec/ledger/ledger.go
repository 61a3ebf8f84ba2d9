package ledger

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec/model"
)

// ErrSideConflict is returned when Add targets a symbol that already has
// an open position on the opposite side. Netting is the caller's job; the
// ledger refuses to silently overwrite.
var ErrSideConflict = errors.New("position side conflict")

// Store is the durable backing of the ledger snapshot. Load must fail
// open: a missing snapshot yields an empty map, not an error.
type Store interface {
	Save(positions map[string]*model.Position) error
	Load() (map[string]*model.Position, error)
}

// PositionLedger is the single source of locally believed open positions.
// Every mutation flushes to the Store before returning; a flush failure
// is logged and swallowed so a storage hiccup cannot destabilize the
// trading loop. Reconciliation is the backstop for lost flushes.
type PositionLedger struct {
	mu        sync.RWMutex
	positions map[string]*model.Position
	store     Store
	log       *zap.SugaredLogger
}

func New(store Store, log *zap.SugaredLogger) *PositionLedger {
	positions, err := store.Load()
	if err != nil {
		log.Warnw("position snapshot unreadable, starting empty", "err", err)
		positions = nil
	}
	if positions == nil {
		positions = make(map[string]*model.Position)
	}
	return &PositionLedger{
		positions: positions,
		store:     store,
		log:       log,
	}
}

// Add upserts a position wholesale. Callers needing average-cost merges
// must pre-compute the merged entry before calling.
func (l *PositionLedger) Add(p *model.Position) error {
	if p.Symbol == "" {
		return &model.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if !p.Quantity.IsPositive() {
		return &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.positions[p.Symbol]; ok && existing.Side != p.Side {
		return ErrSideConflict
	}

	cp := *p
	l.positions[p.Symbol] = &cp
	l.flushLocked()
	return nil
}

// Close removes the position for symbol; no-op if absent.
func (l *PositionLedger) Close(symbol string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.positions[symbol]; !ok {
		return
	}
	delete(l.positions, symbol)
	l.flushLocked()
}

func (l *PositionLedger) Get(symbol string) (*model.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.positions[symbol]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// List returns a full copy of the snapshot, iterable without holding the
// ledger's lock.
func (l *PositionLedger) List() map[string]*model.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.copyLocked()
}

func (l *PositionLedger) copyLocked() map[string]*model.Position {
	out := make(map[string]*model.Position, len(l.positions))
	for symbol, p := range l.positions {
		cp := *p
		out[symbol] = &cp
	}
	return out
}

func (l *PositionLedger) flushLocked() {
	if err := l.store.Save(l.copyLocked()); err != nil {
		l.log.Warnw("position flush failed", "err", err)
	}
}
