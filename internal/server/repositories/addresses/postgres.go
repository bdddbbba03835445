package addresses

import (
	"errors"

	"github.com/dmitrijs2005/lip/internal/dbx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var postgresQueries = queries{
	get: `SELECT id, access_password_hash, master_password_hash, endpoint, created_on, last_update, expiry
		FROM addresses
		WHERE id = $1`,
	insert: `INSERT INTO addresses (id, access_password_hash, master_password_hash, endpoint, created_on, last_update, expiry)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	update: `UPDATE addresses SET endpoint = $1, last_update = $2, expiry = $3
		WHERE id = $4`,
	delete: `DELETE FROM addresses WHERE id = $1`,
	listExpired: `SELECT id FROM addresses
		WHERE expiry <> $1 AND expiry < $2`,
}

// NewPostgresRepository binds the repository to a pgx-backed handle or
// transaction.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries, isDuplicate: isPgUniqueViolation}
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
