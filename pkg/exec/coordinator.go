package exec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/pkg/exec/blotter"
	"github.com/joripage/execution-core/pkg/exec/ledger"
	"github.com/joripage/execution-core/pkg/exec/model"
)

type CoordinatorConfig struct {
	// PollInterval spaces the status sweeps; also bounds each gateway call.
	PollInterval time.Duration
	// MaxOpenOrders caps concurrently tracked non-terminal orders.
	MaxOpenOrders int
	// MaxRetries bounds consecutive failed status fetches per order.
	MaxRetries int
	// HistoryLimit bounds the completed-order history.
	HistoryLimit int
}

func (cfg CoordinatorConfig) withDefaults() CoordinatorConfig {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxOpenOrders <= 0 {
		cfg.MaxOpenOrders = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 256
	}
	return cfg
}

// CompletionCallback fires exactly once per order, on entry to a terminal
// state. Panics inside callbacks are caught and logged.
type CompletionCallback func(*model.OrderRecord)

// OrderCoordinator owns the in-flight order set. One polling goroutine
// sweeps every active order at a fixed interval; it starts lazily on the
// first accepted submission and parks when the active set drains.
type OrderCoordinator struct {
	cfg     CoordinatorConfig
	gateway ExecutionGateway
	ledger  *ledger.PositionLedger
	blotter blotter.Blotter
	log     *zap.SugaredLogger

	mu sync.Mutex
	// reserved counts submissions that passed the capacity check but are
	// still on the wire, so concurrent Submits cannot overshoot the
	// ceiling while no lock is held across the gateway call.
	reserved    int
	active      map[string]*model.OrderRecord
	blotterRows map[string]int64
	history     deque.Deque[*model.OrderRecord]
	callbacks   []CompletionCallback
	polling     bool

	stopOnce sync.Once
	stopCh   chan struct{}

	metrics metrics
}

func NewOrderCoordinator(gw ExecutionGateway, lg *ledger.PositionLedger, bl blotter.Blotter, log *zap.SugaredLogger, cfg CoordinatorConfig) *OrderCoordinator {
	return &OrderCoordinator{
		cfg:         cfg.withDefaults(),
		gateway:     gw,
		ledger:      lg,
		blotter:     bl,
		log:         log,
		active:      make(map[string]*model.OrderRecord),
		blotterRows: make(map[string]int64),
		stopCh:      make(chan struct{}),
	}
}

// OnCompletion registers cb for every order that reaches a terminal state.
func (c *OrderCoordinator) OnCompletion(cb CompletionCallback) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
}

// Stop parks the polling loop and refuses further submissions. In-flight
// orders stay in the active set.
func (c *OrderCoordinator) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Submit validates req, records it in the blotter and submits it through
// the gateway. Failures come back as values; a failed submission never
// touches the position ledger. The capacity check happens before any
// network call.
func (c *OrderCoordinator) Submit(ctx context.Context, req *model.OrderRequest) (*model.OrderRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	select {
	case <-c.stopCh:
		return nil, ErrCoordinatorStopped
	default:
	}

	c.mu.Lock()
	if len(c.active)+c.reserved >= c.cfg.MaxOpenOrders {
		c.mu.Unlock()
		return nil, ErrMaxOpenOrders
	}
	c.reserved++
	c.mu.Unlock()

	now := time.Now()
	order := model.NewOrderRecord(uuid.NewString(), req, c.cfg.MaxRetries, now)

	rowID, err := c.blotter.Append(ctx, &model.BlotterEntry{
		OrderID:   order.ClientID,
		Timestamp: now,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Quantity:  req.Quantity,
		Price:     req.LimitPrice,
		Status:    model.OrderStatusPending,
	})
	if err != nil {
		c.log.Warnw("blotter append failed", "order", order.ClientID, "err", err)
	}
	c.rememberRow(order.ClientID, rowID)

	ack, err := c.gateway.PlaceOrder(ctx, order.ClientID, req)
	if err != nil {
		c.releaseReservation()
		order.Status = model.OrderStatusFailed
		order.LastError = err.Error()
		order.UpdatedAt = time.Now()
		c.updateBlotterStatus(order)
		c.complete(order)
		return order, err
	}
	if !ack.Accepted {
		c.releaseReservation()
		order.Status = model.OrderStatusRejected
		order.LastError = ack.Message
		order.UpdatedAt = time.Now()
		c.updateBlotterStatus(order)
		c.complete(order)
		return order, fmt.Errorf("%w: %s", ErrGatewayReject, ack.Message)
	}

	order.BrokerID = ack.BrokerOrderID
	order.Status = model.OrderStatusSubmitted
	order.SubmittedAt = time.Now()
	order.UpdatedAt = order.SubmittedAt

	c.mu.Lock()
	c.reserved--
	c.active[order.ClientID] = order
	c.startPollingLocked()
	c.mu.Unlock()

	c.metrics.addSubmitted()
	c.updateBlotterStatus(order)
	c.log.Infow("order submitted",
		"order", order.ClientID, "broker_id", order.BrokerID,
		"symbol", order.Symbol, "side", order.Side, "qty", order.Quantity)
	return order, nil
}

// Cancel requests cancellation at the broker. It is a request, not a
// guarantee: the order stays tracked until the broker confirms, and may
// still fill first.
func (c *OrderCoordinator) Cancel(ctx context.Context, clientID string) error {
	c.mu.Lock()
	order, ok := c.active[clientID]
	terminal := ok && order.Status.IsTerminal()
	c.mu.Unlock()
	if !ok {
		return ErrOrderNotFound
	}
	if terminal {
		return ErrOrderTerminal
	}

	accepted, err := c.gateway.CancelOrder(ctx, order.BrokerID)
	if err != nil {
		return err
	}
	if !accepted {
		return ErrCancelDeclined
	}

	c.mu.Lock()
	if !order.Status.IsTerminal() {
		order.Status = model.OrderStatusPendingCancel
		order.UpdatedAt = time.Now()
	}
	c.mu.Unlock()
	c.updateBlotterStatus(order)
	return nil
}

// Active returns a snapshot of the in-flight orders.
func (c *OrderCoordinator) Active() []*model.OrderRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*model.OrderRecord, 0, len(c.active))
	for _, o := range c.active {
		cp := *o
		out = append(out, &cp)
	}
	return out
}

// Completed returns the bounded history of terminal orders, oldest first.
func (c *OrderCoordinator) Completed() []*model.OrderRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*model.OrderRecord, 0, c.history.Len())
	for i := 0; i < c.history.Len(); i++ {
		cp := *c.history.At(i)
		out = append(out, &cp)
	}
	return out
}

func (c *OrderCoordinator) Metrics() MetricsSnapshot {
	return c.metrics.snapshot()
}

func (c *OrderCoordinator) releaseReservation() {
	c.mu.Lock()
	c.reserved--
	c.mu.Unlock()
}

func (c *OrderCoordinator) rememberRow(clientID string, rowID int64) {
	if rowID == 0 {
		return
	}
	c.mu.Lock()
	c.blotterRows[clientID] = rowID
	c.mu.Unlock()
}

func (c *OrderCoordinator) updateBlotterStatus(order *model.OrderRecord) {
	c.mu.Lock()
	rowID := c.blotterRows[order.ClientID]
	status := order.Status
	c.mu.Unlock()
	if rowID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PollInterval)
	defer cancel()
	if err := c.blotter.UpdateStatus(ctx, rowID, status); err != nil {
		c.log.Warnw("blotter status update failed", "order", order.ClientID, "err", err)
	}
}

func (c *OrderCoordinator) startPollingLocked() {
	if c.polling {
		return
	}
	c.polling = true
	go c.pollLoop()
}

func (c *OrderCoordinator) pollLoop() {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.sweep() {
				return
			}
		case <-c.stopCh:
			return
		}
	}
}

// sweep polls each active order once. Returns false when the active set
// drained and the loop should park until the next submission. The lock is
// held only to snapshot the set, never across network calls.
func (c *OrderCoordinator) sweep() bool {
	c.mu.Lock()
	orders := make([]*model.OrderRecord, 0, len(c.active))
	for _, o := range c.active {
		orders = append(orders, o)
	}
	c.mu.Unlock()

	for _, order := range orders {
		c.pollOrder(order)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.active) == 0 {
		c.polling = false
		return false
	}
	return true
}

func (c *OrderCoordinator) pollOrder(order *model.OrderRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PollInterval)
	report, err := c.gateway.GetOrderStatus(ctx, order.BrokerID)
	cancel()

	now := time.Now()
	if err != nil {
		c.mu.Lock()
		order.Attempts++
		order.LastError = err.Error()
		order.UpdatedAt = now
		exhausted := order.Attempts >= order.MaxAttempts
		if exhausted {
			order.Status = model.OrderStatusFailed
		}
		c.mu.Unlock()

		if exhausted {
			c.log.Warnw("status polling exhausted retries",
				"order", order.ClientID, "attempts", order.Attempts, "err", err)
			c.updateBlotterStatus(order)
			c.complete(order)
		}
		return
	}

	c.mu.Lock()
	order.Attempts = 0
	prevStatus := order.Status
	// Fills apply before any status bookkeeping: a status fetch that
	// returns with a fill is not an IO error.
	fillDelta := order.ApplyBrokerFill(report.FilledQty, report.AvgFillPrice, now)
	applyBrokerStatus(order, mapBrokerStatus(report.Status), now)
	status := order.Status
	avgPrice := order.AvgFillPrice
	c.mu.Unlock()

	if fillDelta.IsPositive() {
		c.applyFillToLedger(order, fillDelta, avgPrice)
		c.log.Infow("fill applied",
			"order", order.ClientID, "symbol", order.Symbol,
			"delta", fillDelta, "avg_price", avgPrice)
	}
	if status != prevStatus {
		c.updateBlotterStatus(order)
	}
	if status.IsTerminal() {
		c.complete(order)
	}
}

// applyBrokerStatus merges the mapped broker status into the record.
// Cancel/reject/expire outcomes are broker-authoritative; fill-derived
// states come from the fill accumulation and are not overwritten here.
func applyBrokerStatus(order *model.OrderRecord, mapped model.OrderStatus, now time.Time) {
	switch mapped {
	case model.OrderStatusCancelled, model.OrderStatusRejected, model.OrderStatusExpired:
		if order.Status != model.OrderStatusFilled {
			order.Status = mapped
			order.UpdatedAt = now
		}
	case model.OrderStatusPendingCancel:
		if !order.Status.IsTerminal() && order.Status != model.OrderStatusPendingCancel {
			order.Status = model.OrderStatusPendingCancel
			order.UpdatedAt = now
		}
	}
}

// applyFillToLedger merges a fill delta into the position ledger. The
// ledger upserts wholesale, so netting against an opposite-side position
// happens here.
func (c *OrderCoordinator) applyFillToLedger(order *model.OrderRecord, delta, price decimal.Decimal) {
	fillSide := model.PositionSideForOrder(order.Side)
	existing, ok := c.ledger.Get(order.Symbol)

	var err error
	switch {
	case !ok:
		err = c.ledger.Add(&model.Position{
			Symbol:      order.Symbol,
			Side:        fillSide,
			Quantity:    delta,
			EntryPrice:  price,
			StopPrice:   order.StopPrice,
			TargetPrice: order.TargetPrice,
			StrategyTag: order.StrategyTag,
		})
	case existing.Side == fillSide:
		merged := existing.Quantity.Add(delta)
		existing.EntryPrice = existing.EntryPrice.Mul(existing.Quantity).
			Add(price.Mul(delta)).Div(merged)
		existing.Quantity = merged
		err = c.ledger.Add(existing)
	default:
		remaining := existing.Quantity.Sub(delta)
		if remaining.GreaterThan(model.QtyEpsilon) {
			existing.Quantity = remaining
			err = c.ledger.Add(existing)
			break
		}
		c.ledger.Close(order.Symbol)
		if flipped := remaining.Neg(); flipped.GreaterThan(model.QtyEpsilon) {
			err = c.ledger.Add(&model.Position{
				Symbol:      order.Symbol,
				Side:        fillSide,
				Quantity:    flipped,
				EntryPrice:  price,
				StopPrice:   order.StopPrice,
				TargetPrice: order.TargetPrice,
				StrategyTag: order.StrategyTag,
			})
		}
	}
	if err != nil {
		c.log.Errorw("ledger update failed",
			"order", order.ClientID, "symbol", order.Symbol, "err", err)
	}
}

// complete moves order out of the active set into the bounded history,
// updates counters and fires completion callbacks exactly once.
func (c *OrderCoordinator) complete(order *model.OrderRecord) {
	c.mu.Lock()
	delete(c.active, order.ClientID)
	delete(c.blotterRows, order.ClientID)
	c.history.PushBack(order)
	for c.history.Len() > c.cfg.HistoryLimit {
		c.history.PopFront()
	}
	cbs := make([]CompletionCallback, len(c.callbacks))
	copy(cbs, c.callbacks)
	c.mu.Unlock()

	switch order.Status {
	case model.OrderStatusFilled:
		var ttf time.Duration
		if !order.SubmittedAt.IsZero() && !order.FilledAt.IsZero() {
			ttf = order.FilledAt.Sub(order.SubmittedAt)
		}
		c.metrics.addFilled(ttf)
	case model.OrderStatusRejected:
		c.metrics.addRejected()
	case model.OrderStatusFailed:
		c.metrics.addFailed()
	case model.OrderStatusCancelled:
		c.metrics.addCancelled()
	case model.OrderStatusExpired:
		c.metrics.addExpired()
	}

	for _, cb := range cbs {
		c.invokeCallback(cb, order)
	}
}

func (c *OrderCoordinator) invokeCallback(cb CompletionCallback, order *model.OrderRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("completion callback panicked", "order", order.ClientID, "panic", r)
		}
	}()
	cb(order)
}
