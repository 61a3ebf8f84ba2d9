package fixgateway

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
)

const (
	numShards = 16
	queueSize = 1_000_000
)

// Application implements the quickfix.Application interface for the
// initiator side. Inbound execution reports are sharded by order id so
// reports for one order apply in arrival order while different orders
// proceed in parallel.
type Application struct {
	*quickfix.MessageRouter
	gateway    *FixGateway
	shardQueue *shardqueue.Shardqueue
	initiator  *quickfix.Initiator
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

func newApplication(gateway *FixGateway) *Application {
	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		gateway:       gateway,
	}

	app.AddRoute(executionreport.Route(app.onExecutionReport))

	app.shardQueue = shardqueue.NewShardQueue(numShards, queueSize)
	app.shardQueue.Start(func(msg interface{}) error {
		if v, ok := msg.(*inboundMsg); ok {
			app.Route(v.msg, v.sessionID) // nolint
		}
		return nil
	})

	return app
}

func startApp(configFilepath string, gateway *FixGateway) (*Application, error) {
	cfg, err := os.Open(configFilepath)
	if err != nil {
		return nil, fmt.Errorf("error opening %v, %v", configFilepath, err)
	}
	defer cfg.Close() // nolint

	stringData, readErr := io.ReadAll(cfg)
	if readErr != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", readErr)
	}

	appSettings, err := quickfix.ParseSettings(bytes.NewReader(stringData))
	if err != nil {
		return nil, fmt.Errorf("error reading cfg: %s,", err)
	}

	app := newApplication(gateway)

	logFactory, _ := file.NewLogFactory(appSettings)
	initiator, err := quickfix.NewInitiator(app, quickfix.NewMemoryStoreFactory(), appSettings, logFactory)
	if err != nil {
		return nil, fmt.Errorf("unable to create initiator: %s", err)
	}
	if err := initiator.Start(); err != nil {
		return nil, fmt.Errorf("unable to start FIX initiator: %s", err)
	}
	app.initiator = initiator

	return app, nil
}

func stopApp(a *Application) {
	if a.initiator != nil {
		a.initiator.Stop()
	}
}

// OnCreate implemented as part of Application interface
func (a *Application) OnCreate(sessionID quickfix.SessionID) {}

// OnLogon implemented as part of Application interface
func (a *Application) OnLogon(sessionID quickfix.SessionID) {
	a.gateway.setLoggedOn(sessionID, true)
}

// OnLogout implemented as part of Application interface
func (a *Application) OnLogout(sessionID quickfix.SessionID) {
	a.gateway.setLoggedOn(sessionID, false)
}

// ToAdmin implemented as part of Application interface
func (a *Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

// ToApp implemented as part of Application interface
func (a *Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

// FromAdmin implemented as part of Application interface
func (a *Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp implemented as part of Application interface, shards incoming
// application messages by order id before routing.
func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) (reject quickfix.MessageRejectError) {
	a.shardQueue.Shard(getRoutingKey(msg, sessionID), &inboundMsg{msg, sessionID})
	return nil
}

func getRoutingKey(msg *quickfix.Message, sessionID quickfix.SessionID) string {
	if orderID, err := msg.Body.GetString(tag.OrderID); err == nil && orderID != "" {
		return orderID
	}
	if clOrdID, err := msg.Body.GetString(tag.ClOrdID); err == nil && clOrdID != "" {
		return clOrdID
	}
	return sessionID.String()
}

func (a *Application) onExecutionReport(msg executionreport.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	orderID, _ := msg.GetOrderID()
	clOrdID, _ := msg.GetClOrdID()
	ordStatus, _ := msg.GetOrdStatus()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	cumQty, _ := msg.GetCumQty()
	avgPx, _ := msg.GetAvgPx()
	text, _ := msg.GetText()

	a.gateway.applyReport(&execReport{
		OrderID:   orderID,
		ClOrdID:   clOrdID,
		OrdStatus: ordStatus,
		Symbol:    symbol,
		Side:      side,
		CumQty:    cumQty,
		AvgPx:     avgPx,
		Text:      text,
	})
	return nil
}
