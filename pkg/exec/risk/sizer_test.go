package risk

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSizeRiskCapBinds(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	// raw = 1000*0.02/1 = 20, cap = 1000*0.1/10 = 10
	qty := s.Size(decimal.NewFromInt(1000), decimal.NewFromInt(10), decimal.NewFromInt(9))
	if !qty.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10, got %s", qty)
	}
}

func TestSizeWideStopBindsRisk(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	// per-unit risk 5: raw = 1000*0.02/5 = 4, cap = 10
	qty := s.Size(decimal.NewFromInt(1000), decimal.NewFromInt(10), decimal.NewFromInt(5))
	if !qty.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected 4, got %s", qty)
	}
}

func TestSizeNoStopAssumesTotalLoss(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	// per-unit risk defaults to price: raw = 1000*0.02/10 = 2
	qty := s.Size(decimal.NewFromInt(1000), decimal.NewFromInt(10), decimal.Zero)
	if !qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2, got %s", qty)
	}
}

func TestSizeInvalidInputs(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	cases := []struct {
		name    string
		account decimal.Decimal
		price   decimal.Decimal
	}{
		{"zero account", decimal.Zero, decimal.NewFromInt(10)},
		{"negative account", decimal.NewFromInt(-100), decimal.NewFromInt(10)},
		{"zero price", decimal.NewFromInt(1000), decimal.Zero},
		{"negative price", decimal.NewFromInt(1000), decimal.NewFromInt(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if qty := s.Size(tc.account, tc.price, decimal.Zero); !qty.IsZero() {
				t.Errorf("expected 0, got %s", qty)
			}
		})
	}
}

func TestSizeNeverExceedsCap(t *testing.T) {
	s := NewSizer(0.05, 0.1)
	account := decimal.NewFromInt(10000)
	price := decimal.NewFromInt(50)
	hardCap := account.Mul(s.MaxPositionPct).Div(price)

	// ever tighter stops push the raw size up; the cap must always hold
	for _, stop := range []string{"49.99", "49.999", "49.9999", "45", "1"} {
		qty := s.Size(account, price, decimal.RequireFromString(stop))
		if qty.GreaterThan(hardCap) {
			t.Errorf("stop %s: qty %s exceeds cap %s", stop, qty, hardCap)
		}
		if qty.IsNegative() {
			t.Errorf("stop %s: negative qty %s", stop, qty)
		}
	}
}

func TestSizeStopEqualPriceFallsBack(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	// a stop at the entry price has zero per-unit distance; fall back to
	// total-loss risk instead of dividing by zero
	qty := s.Size(decimal.NewFromInt(1000), decimal.NewFromInt(10), decimal.NewFromInt(10))
	if !qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2, got %s", qty)
	}
}

func TestPortfolioExposure(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	exp := s.PortfolioExposure(map[string]Holding{
		"AAPL": {Quantity: decimal.NewFromInt(10), EntryPrice: decimal.NewFromInt(100)},
		"MSFT": {Quantity: decimal.NewFromInt(5), EntryPrice: decimal.NewFromInt(200)},
	})

	if !exp.TotalValue.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected total 2000, got %s", exp.TotalValue)
	}
	// two equal weights: concentration = 0.5^2 + 0.5^2 = 0.5
	if exp.Concentration < 0.499 || exp.Concentration > 0.501 {
		t.Errorf("expected concentration 0.5, got %f", exp.Concentration)
	}
}

func TestPortfolioExposureSingle(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	exp := s.PortfolioExposure(map[string]Holding{
		"AAPL": {Quantity: decimal.NewFromInt(1), EntryPrice: decimal.NewFromInt(100)},
	})
	if exp.Concentration < 0.999 || exp.Concentration > 1.001 {
		t.Errorf("single position should score 1, got %f", exp.Concentration)
	}
}

func TestPortfolioExposureEmpty(t *testing.T) {
	s := NewSizer(0.02, 0.1)

	exp := s.PortfolioExposure(nil)
	if !exp.TotalValue.IsZero() || exp.Concentration != 0 {
		t.Errorf("empty portfolio should be zero-valued, got %+v", exp)
	}
}
