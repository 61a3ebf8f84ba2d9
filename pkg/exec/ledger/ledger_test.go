package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec/model"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func longPosition(symbol string, qty int64) *model.Position {
	return &model.Position{
		Symbol:      symbol,
		Side:        model.PositionSideLong,
		Quantity:    decimal.NewFromInt(qty),
		EntryPrice:  decimal.NewFromInt(100),
		StopPrice:   decimal.NewFromInt(95),
		TargetPrice: decimal.NewFromInt(110),
		StrategyTag: "momentum",
	}
}

func TestAddAndGet(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())

	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}

	p, ok := l.Get("AAPL")
	if !ok {
		t.Fatal("expected position")
	}
	if !p.Quantity.Equal(decimal.NewFromInt(10)) || p.Side != model.PositionSideLong {
		t.Errorf("unexpected position %+v", p)
	}
}

func TestAddUpsertsWholesale(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())

	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.Add(longPosition("AAPL", 25)); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	p, _ := l.Get("AAPL")
	if !p.Quantity.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected replacement to 25, got %s", p.Quantity)
	}
	if len(l.List()) != 1 {
		t.Errorf("expected single entry per symbol")
	}
}

func TestAddSideConflict(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())

	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}

	short := longPosition("AAPL", 5)
	short.Side = model.PositionSideShort
	if err := l.Add(short); !errors.Is(err, ErrSideConflict) {
		t.Errorf("expected ErrSideConflict, got %v", err)
	}

	// original untouched
	p, _ := l.Get("AAPL")
	if p.Side != model.PositionSideLong || !p.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("conflicting add must not mutate, got %+v", p)
	}
}

func TestAddValidation(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())

	p := longPosition("", 10)
	if err := l.Add(p); err == nil {
		t.Error("expected error on empty symbol")
	}
	p = longPosition("AAPL", 0)
	if err := l.Add(p); err == nil {
		t.Error("expected error on zero quantity")
	}
}

func TestCloseAbsentIsNoop(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())
	l.Close("GOOG")
	if len(l.List()) != 0 {
		t.Error("expected empty ledger")
	}
}

func TestListReturnsCopy(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "positions.json")), testLogger())
	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}

	snapshot := l.List()
	snapshot["AAPL"].Quantity = decimal.NewFromInt(999)
	delete(snapshot, "AAPL")

	p, ok := l.Get("AAPL")
	if !ok || !p.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Error("mutating the snapshot must not affect the ledger")
	}
}

func TestSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")

	l := New(NewFileStore(path), testLogger())
	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.Add(longPosition("MSFT", 5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	l.Close("MSFT")

	// a fresh ledger over the same store sees the flushed state
	reloaded := New(NewFileStore(path), testLogger())
	positions := reloaded.List()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position after reload, got %d", len(positions))
	}
	p := positions["AAPL"]
	if p == nil || !p.Quantity.Equal(decimal.NewFromInt(10)) || p.StrategyTag != "momentum" {
		t.Errorf("reloaded position mismatch: %+v", p)
	}
}

func TestCorruptSnapshotFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(NewFileStore(path), testLogger())
	if len(l.List()) != 0 {
		t.Error("corrupt snapshot must yield an empty ledger")
	}

	// and the ledger still works afterwards
	if err := l.Add(longPosition("AAPL", 10)); err != nil {
		t.Fatalf("add after corrupt load: %v", err)
	}
}

func TestMissingSnapshotFailsOpen(t *testing.T) {
	l := New(NewFileStore(filepath.Join(t.TempDir(), "nope", "positions.json")), testLogger())
	if len(l.List()) != 0 {
		t.Error("missing snapshot must yield an empty ledger")
	}
}
