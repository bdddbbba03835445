package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/lip/internal/dbx"
	"github.com/dmitrijs2005/lip/internal/server/migrations"
	"github.com/dmitrijs2005/lip/internal/server/repositories/addresses"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Addresses(db dbx.DBTX) addresses.Repository {
	return addresses.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, migrations.DirSQLite)
}
