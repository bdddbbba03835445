// Package repomanager vends dialect-specific repositories, runs the
// embedded goose migrations and exposes the resulting record store.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/lip/internal/dbx"
	"github.com/dmitrijs2005/lip/internal/server/repositories/addresses"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Addresses(db dbx.DBTX) addresses.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewRepositoryManager returns the manager for driver ("sqlite" or
// "postgres").
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	switch driver {
	case "postgres":
		return &PostgresRepositoryManager{}, nil
	case "sqlite":
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// OpenDB opens and pings the database for driver.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case "postgres":
		db, err = sql.Open("pgx", dsn)
	case "sqlite":
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// one writer at a time; concurrent connections only produce SQLITE_BUSY
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
