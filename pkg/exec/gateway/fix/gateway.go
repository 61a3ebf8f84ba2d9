// Package fixgateway implements the execution gateway over a FIX 4.4
// initiator session: NewOrderSingle out, ExecutionReport in. Inbound
// reports feed a local status cache that status fetches are served from,
// so polling never blocks on the wire.
package fixgateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/fix44/ordercancelrequest"
	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec"
	"github.com/joripage/execution-core/pkg/exec/model"
)

var (
	errSessionDown   = errors.New("fix session not logged on")
	errAckTimeout    = errors.New("no execution report before ack timeout")
	errStatusUnknown = errors.New("no execution report for order yet")
	errOrderUnknown  = errors.New("unknown broker order id")
)

var (
	sideMapping = map[model.OrderSide]enum.Side{
		model.OrderSideBuy:  enum.Side_BUY,
		model.OrderSideSell: enum.Side_SELL,
	}

	kindMapping = map[model.OrderKind]enum.OrdType{
		model.OrderKindMarket:    enum.OrdType_MARKET,
		model.OrderKindLimit:     enum.OrdType_LIMIT,
		model.OrderKindStop:      enum.OrdType_STOP,
		model.OrderKindStopLimit: enum.OrdType_STOP_LIMIT,
	}

	tifMapping = map[model.OrderTimeInForce]enum.TimeInForce{
		model.OrderTimeInForceDAY: enum.TimeInForce_DAY,
		model.OrderTimeInForceGTC: enum.TimeInForce_GOOD_TILL_CANCEL,
		model.OrderTimeInForceIOC: enum.TimeInForce_IMMEDIATE_OR_CANCEL,
		model.OrderTimeInForceFOK: enum.TimeInForce_FILL_OR_KILL,
	}

	// ordStatusVocab renders FIX OrdStatus codes in the vocabulary the
	// coordinator's mapping table understands.
	ordStatusVocab = map[enum.OrdStatus]string{
		enum.OrdStatus_NEW:              "new",
		enum.OrdStatus_PENDING_NEW:      "pending_new",
		enum.OrdStatus_PARTIALLY_FILLED: "partially_filled",
		enum.OrdStatus_FILLED:           "filled",
		enum.OrdStatus_DONE_FOR_DAY:     "done_for_day",
		enum.OrdStatus_CANCELED:         "canceled",
		enum.OrdStatus_PENDING_CANCEL:   "pending_cancel",
		enum.OrdStatus_REJECTED:         "rejected",
		enum.OrdStatus_EXPIRED:          "expired",
	}
)

type FixGatewayConfig struct {
	ConfigFilepath string
	Account        string
	// BuyingPower is the ops-configured account equity; the counterparty
	// session carries no account snapshot.
	BuyingPower decimal.Decimal
	AckTimeout  time.Duration
}

type orderInfo struct {
	clOrdID string
	symbol  string
	side    enum.Side
	prevCum decimal.Decimal
}

type FixGateway struct {
	cfg *FixGatewayConfig
	app *Application
	log *zap.SugaredLogger

	pendingAcks sync.Map // ClOrdID -> chan *exec.PlaceOrderAck

	mu        sync.RWMutex
	orders    map[string]*orderInfo // broker OrderID -> info
	reports   map[string]exec.OrderStatusReport
	positions map[string]decimal.Decimal // symbol -> signed qty

	sessMu    sync.RWMutex
	sessionID quickfix.SessionID
	loggedOn  bool
}

func NewFixGateway(cfg *FixGatewayConfig, log *zap.SugaredLogger) *FixGateway {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 5 * time.Second
	}
	return &FixGateway{
		cfg:       cfg,
		log:       log,
		orders:    make(map[string]*orderInfo),
		reports:   make(map[string]exec.OrderStatusReport),
		positions: make(map[string]decimal.Decimal),
	}
}

func (g *FixGateway) Start(ctx context.Context) error {
	app, err := startApp(g.cfg.ConfigFilepath, g)
	if err != nil {
		g.log.Errorw("start fix app failed", "err", err)
		return err
	}
	g.app = app
	return nil
}

func (g *FixGateway) Stop() {
	if g.app != nil {
		stopApp(g.app)
	}
}

// PlaceOrder sends a NewOrderSingle and blocks until the first execution
// report for the ClOrdID arrives, the ack timeout elapses, or ctx is
// cancelled.
func (g *FixGateway) PlaceOrder(ctx context.Context, clientID string, req *model.OrderRequest) (*exec.PlaceOrderAck, error) {
	sessionID, ok := g.session()
	if !ok {
		return nil, errSessionDown
	}

	ackCh := make(chan *exec.PlaceOrderAck, 1)
	g.pendingAcks.Store(clientID, ackCh)
	defer g.pendingAcks.Delete(clientID)

	msg := newordersingle.New(
		field.NewClOrdID(clientID),
		field.NewSide(sideMapping[req.Side]),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(kindMapping[req.Kind]),
	)
	msg.SetSymbol(req.Symbol)
	msg.SetOrderQty(req.Quantity, 0)
	if tif, ok := tifMapping[req.TimeInForce]; ok {
		msg.SetTimeInForce(tif)
	}
	switch req.Kind {
	case model.OrderKindLimit:
		msg.SetPrice(req.LimitPrice, 2)
	case model.OrderKindStop:
		msg.SetStopPx(req.StopPrice, 2)
	case model.OrderKindStopLimit:
		msg.SetPrice(req.LimitPrice, 2)
		msg.SetStopPx(req.StopPrice, 2)
	}
	if g.cfg.Account != "" {
		msg.SetAccount(g.cfg.Account)
	}

	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		return nil, err
	}

	select {
	case ack := <-ackCh:
		return ack, nil
	case <-time.After(g.cfg.AckTimeout):
		return nil, errAckTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CancelOrder sends an OrderCancelRequest. True means the request went
// out; confirmation arrives asynchronously as an execution report.
func (g *FixGateway) CancelOrder(_ context.Context, brokerOrderID string) (bool, error) {
	sessionID, ok := g.session()
	if !ok {
		return false, errSessionDown
	}

	g.mu.RLock()
	info, known := g.orders[brokerOrderID]
	g.mu.RUnlock()
	if !known {
		return false, errOrderUnknown
	}

	msg := ordercancelrequest.New(
		field.NewOrigClOrdID(info.clOrdID),
		field.NewClOrdID(uuid.NewString()),
		field.NewSide(info.side),
		field.NewTransactTime(time.Now()),
	)
	msg.SetSymbol(info.symbol)
	msg.SetOrderID(brokerOrderID)

	if err := quickfix.SendToTarget(msg, sessionID); err != nil {
		return false, err
	}
	return true, nil
}

// GetOrderStatus serves the last execution report seen for the order. An
// order with no report yet is a transient miss the caller retries.
func (g *FixGateway) GetOrderStatus(_ context.Context, brokerOrderID string) (*exec.OrderStatusReport, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	report, ok := g.reports[brokerOrderID]
	if !ok {
		return nil, errStatusUnknown
	}
	cp := report
	return &cp, nil
}

// GetPositions derives positions from cumulative fills over the session.
func (g *FixGateway) GetPositions(_ context.Context) ([]exec.BrokerPosition, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]exec.BrokerPosition, 0, len(g.positions))
	for symbol, qty := range g.positions {
		if qty.IsZero() {
			continue
		}
		out = append(out, exec.BrokerPosition{Symbol: symbol, Qty: qty})
	}
	return out, nil
}

func (g *FixGateway) GetBuyingPower(_ context.Context) (decimal.Decimal, error) {
	return g.cfg.BuyingPower, nil
}

// IsMarketOpen reports session availability; the FIX schedule drives
// logon and logout around trading hours.
func (g *FixGateway) IsMarketOpen(_ context.Context) (bool, error) {
	g.sessMu.RLock()
	defer g.sessMu.RUnlock()
	return g.loggedOn, nil
}

func (g *FixGateway) session() (quickfix.SessionID, bool) {
	g.sessMu.RLock()
	defer g.sessMu.RUnlock()
	return g.sessionID, g.loggedOn
}

func (g *FixGateway) setLoggedOn(sessionID quickfix.SessionID, on bool) {
	g.sessMu.Lock()
	g.sessionID = sessionID
	g.loggedOn = on
	g.sessMu.Unlock()
}

// execReport is the subset of an ExecutionReport the gateway tracks.
type execReport struct {
	OrderID   string
	ClOrdID   string
	OrdStatus enum.OrdStatus
	Symbol    string
	Side      enum.Side
	CumQty    decimal.Decimal
	AvgPx     decimal.Decimal
	Text      string
}

func (g *FixGateway) applyReport(r *execReport) {
	// First report for a ClOrdID resolves a waiting submission.
	if ch, ok := g.pendingAcks.Load(r.ClOrdID); ok {
		ack := &exec.PlaceOrderAck{
			BrokerOrderID: r.OrderID,
			Accepted:      r.OrdStatus != enum.OrdStatus_REJECTED,
			Message:       r.Text,
		}
		select {
		case ch.(chan *exec.PlaceOrderAck) <- ack:
		default:
		}
	}
	if r.OrderID == "" {
		return
	}

	status, ok := ordStatusVocab[r.OrdStatus]
	if !ok {
		status = string(r.OrdStatus)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	info := g.orders[r.OrderID]
	if info == nil {
		info = &orderInfo{clOrdID: r.ClOrdID, symbol: r.Symbol, side: r.Side}
		g.orders[r.OrderID] = info
	}

	g.reports[r.OrderID] = exec.OrderStatusReport{
		Status:       status,
		FilledQty:    r.CumQty,
		AvgFillPrice: r.AvgPx,
	}

	if delta := r.CumQty.Sub(info.prevCum); delta.IsPositive() {
		if r.Side == enum.Side_SELL {
			delta = delta.Neg()
		}
		g.positions[info.symbol] = g.positions[info.symbol].Add(delta)
		info.prevCum = r.CumQty
	}
}
