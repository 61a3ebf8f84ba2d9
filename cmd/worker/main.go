package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/joripage/execution-core/config"
	"github.com/joripage/execution-core/pkg/exec/blotter"
	"github.com/joripage/execution-core/pkg/exec/worker"
	postgres_wrapper "github.com/joripage/execution-core/pkg/infra/postgres"
	"github.com/joripage/execution-core/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "./config/config.yaml", "Specify config file path")
	flag.Parse()

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

	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.BlotterDB)
	if err != nil {
		panic(err)
	}

	nc, err := nats.Connect(cfg.Nats.URL)
	if err != nil {
		panic(err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	w := worker.New(blotter.NewSQLBlotter(db), sugar)
	if err := w.StartConsumer(ctx, js, cfg.Nats.Subject, cfg.Nats.Durable); err != nil {
		sugar.Fatalw("consumer stopped", "err", err)
	}
}
