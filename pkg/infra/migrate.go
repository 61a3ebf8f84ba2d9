package infra

import (
	"fmt"

	"github.com/cenkalti/backoff"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	postgres_wrapper "github.com/joripage/execution-core/pkg/infra/postgres"
	"gorm.io/gorm"
)

// Migrate brings the schema at connStr up to the latest version found at
// source. A dirty version is forced back one step before retrying.
func Migrate(source, connStr string) error {
	mg, err := migrate.New(source, connStr)
	if err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	defer mg.Close()

	version, dirty, err := mg.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return err
	}
	if dirty {
		if err := mg.Force(int(version) - 1); err != nil {
			return err
		}
	}

	if err := mg.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// CreateDBAndMigrate connects with backoff and migrates; used to stand up
// throwaway databases in integration tests.
func CreateDBAndMigrate(cfg *postgres_wrapper.PostgresConfig, migrationSource string) (*gorm.DB, error) {
	var db *gorm.DB
	boff := backoff.NewExponentialBackOff()
	err := backoff.Retry(func() error {
		var err error
		db, err = postgres_wrapper.InitPostgres(cfg)
		return err
	}, boff)
	if err != nil {
		return nil, err
	}

	if err := Migrate(migrationSource, cfg.MigrationConnURL); err != nil {
		return nil, err
	}
	return db, nil
}
