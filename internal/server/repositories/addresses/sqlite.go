package addresses

import (
	"errors"

	"github.com/dmitrijs2005/lip/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteQueries = queries{
	get: `SELECT id, access_password_hash, master_password_hash, endpoint, created_on, last_update, expiry
		FROM addresses
		WHERE id = ?`,
	insert: `INSERT INTO addresses (id, access_password_hash, master_password_hash, endpoint, created_on, last_update, expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	update: `UPDATE addresses SET endpoint = ?, last_update = ?, expiry = ?
		WHERE id = ?`,
	delete: `DELETE FROM addresses WHERE id = ?`,
	listExpired: `SELECT id FROM addresses
		WHERE expiry <> ? AND expiry < ?`,
}

// NewSQLiteRepository binds the repository to a modernc.org/sqlite handle
// or transaction.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries, isDuplicate: isSQLiteConstraint}
}

func isSQLiteConstraint(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch sqErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}
