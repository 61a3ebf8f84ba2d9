package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"

	"github.com/joripage/execution-core/config"
	"github.com/joripage/execution-core/pkg/exec"
	"github.com/joripage/execution-core/pkg/exec/blotter"
	fixgateway "github.com/joripage/execution-core/pkg/exec/gateway/fix"
	"github.com/joripage/execution-core/pkg/exec/ledger"
	"github.com/joripage/execution-core/pkg/exec/reconcile"
	postgres_wrapper "github.com/joripage/execution-core/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/execution-core/pkg/infra/redis"
	"github.com/joripage/execution-core/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "./config/config.yaml", "Specify config file path")
	flag.Parse()

	go func() {
		http.ListenAndServe("localhost:6060", nil) // nolint
	}()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint
	sugar := logger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// position ledger
	var store ledger.Store
	switch cfg.Ledger.Backend {
	case "redis":
		redisClient, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			panic(err)
		}
		store = ledger.NewRedisStore(redisClient, cfg.Ledger.RedisKey)
	default:
		store = ledger.NewFileStore(cfg.Ledger.FilePath)
	}
	positionLedger := ledger.New(store, sugar)

	// blotter: local log mirrored to JetStream, persisted by the worker
	var auditLog blotter.Blotter = blotter.NewInMemoryBlotter()
	if cfg.Nats != nil && cfg.Nats.URL != "" {
		nc, err := nats.Connect(cfg.Nats.URL)
		if err != nil {
			panic(err)
		}
		defer nc.Close()
		js, err := nc.JetStream()
		if err != nil {
			panic(err)
		}
		auditLog = blotter.NewPublishingBlotter(auditLog, js, cfg.Nats.Subject, sugar)
	} else if cfg.BlotterDB != nil {
		db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.BlotterDB)
		if err != nil {
			panic(err)
		}
		auditLog = blotter.NewSQLBlotter(db)
	}

	gateway := fixgateway.NewFixGateway(&fixgateway.FixGatewayConfig{
		ConfigFilepath: cfg.Fix.ConfigFilepath,
		Account:        cfg.Fix.Account,
		BuyingPower:    decimal.NewFromFloat(cfg.Fix.BuyingPower),
		AckTimeout:     time.Duration(cfg.Fix.AckTimeoutMS) * time.Millisecond,
	}, sugar)
	if err := gateway.Start(ctx); err != nil {
		panic(err)
	}
	defer gateway.Stop()

	coordinator := exec.NewOrderCoordinator(gateway, positionLedger, auditLog, sugar, exec.CoordinatorConfig{
		PollInterval:  time.Duration(cfg.Coordinator.PollIntervalMS) * time.Millisecond,
		MaxOpenOrders: cfg.Coordinator.MaxOpenOrders,
		MaxRetries:    cfg.Coordinator.MaxRetries,
		HistoryLimit:  cfg.Coordinator.HistoryLimit,
	})
	defer coordinator.Stop()

	reconciler := reconcile.New(positionLedger, gateway, sugar)
	if cfg.Reconcile != nil && cfg.Reconcile.IntervalSeconds > 0 {
		go reconciler.Run(ctx, time.Duration(cfg.Reconcile.IntervalSeconds)*time.Second)
	}

	fmt.Println("execution core started. Press Ctrl+C to exit.")
	<-sigs
	fmt.Println("Shutting down...")

	cancel()

	snap := coordinator.Metrics()
	sugar.Infow("final order metrics",
		"submitted", snap.Submitted, "filled", snap.Filled,
		"rejected", snap.Rejected, "failed", snap.Failed,
		"success_rate", snap.SuccessRate)

	fmt.Println("Exited cleanly.")
}
