// Package reconcile diffs the locally believed position ledger against
// the broker's reported positions. It reports divergence as structured
// data and never auto-corrects: patching either side automatically risks
// compounding an already-divergent state.
package reconcile

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec"
	"github.com/joripage/execution-core/pkg/exec/ledger"
	"github.com/joripage/execution-core/pkg/exec/model"
)

// Discrepancy is one symbol's mismatch. Quantities are signed: shorts are
// negative on both sides. Unexpected marks a position the broker reports
// that the ledger knows nothing about.
type Discrepancy struct {
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
	Unexpected bool
}

type Report struct {
	Reconciled    bool
	Discrepancies map[string]Discrepancy
	CheckedAt     time.Time
}

type Service struct {
	ledger  *ledger.PositionLedger
	gateway exec.ExecutionGateway
	epsilon decimal.Decimal
	log     *zap.SugaredLogger
}

func New(lg *ledger.PositionLedger, gw exec.ExecutionGateway, log *zap.SugaredLogger) *Service {
	return &Service{
		ledger:  lg,
		gateway: gw,
		epsilon: model.QtyEpsilon,
		log:     log,
	}
}

// Reconcile fetches both views and records every symbol whose quantity
// difference exceeds epsilon. The error is non-nil only when the broker
// fetch itself fails.
func (s *Service) Reconcile(ctx context.Context) (*Report, error) {
	brokerPositions, err := s.gateway.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	expected := make(map[string]decimal.Decimal)
	for symbol, p := range s.ledger.List() {
		expected[symbol] = p.SignedQuantity()
	}
	actual := make(map[string]decimal.Decimal, len(brokerPositions))
	for _, bp := range brokerPositions {
		actual[bp.Symbol] = bp.Qty
	}

	report := &Report{
		Discrepancies: make(map[string]Discrepancy),
		CheckedAt:     time.Now(),
	}

	for symbol, exp := range expected {
		act := actual[symbol]
		if diff := act.Sub(exp); diff.Abs().GreaterThan(s.epsilon) {
			report.Discrepancies[symbol] = Discrepancy{
				Expected:   exp,
				Actual:     act,
				Difference: diff,
			}
		}
	}
	for symbol, act := range actual {
		if _, known := expected[symbol]; known {
			continue
		}
		if act.Abs().GreaterThan(s.epsilon) {
			report.Discrepancies[symbol] = Discrepancy{
				Actual:     act,
				Difference: act,
				Unexpected: true,
			}
		}
	}

	report.Reconciled = len(report.Discrepancies) == 0
	return report, nil
}

// Run reconciles on a fixed interval until ctx is cancelled, logging any
// divergence for an operator to act on.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := s.Reconcile(ctx)
			if err != nil {
				s.log.Warnw("reconciliation fetch failed", "err", err)
				continue
			}
			if report.Reconciled {
				s.log.Debugw("positions reconciled")
				continue
			}
			for symbol, d := range report.Discrepancies {
				s.log.Errorw("position divergence",
					"symbol", symbol,
					"expected", d.Expected,
					"actual", d.Actual,
					"difference", d.Difference,
					"unexpected", d.Unexpected)
			}
		case <-ctx.Done():
			return
		}
	}
}
