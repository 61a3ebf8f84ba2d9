package main

import (
	"flag"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/joripage/execution-core/config"
	"github.com/joripage/execution-core/pkg/infra"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	if err := infra.Migrate("file://migration/sql", cfg.BlotterDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migration failed: %v", err)
	}
	zap.S().Info("migration done")
}
