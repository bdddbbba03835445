package addresses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/dbx"
	"github.com/dmitrijs2005/lip/internal/server/models"
)

type queries struct {
	get         string
	insert      string
	update      string
	delete      string
	listExpired string
}

// SQLRepository implements Repository over database/sql. The dialect only
// decides placeholders and how a duplicate key is recognised.
type SQLRepository struct {
	db          dbx.DBTX
	q           queries
	isDuplicate func(error) bool
}

func (r *SQLRepository) Get(ctx context.Context, id string) (*models.Address, error) {
	a := &models.Address{}
	err := r.db.QueryRowContext(ctx, r.q.get, id).Scan(
		&a.ID, &a.AccessPasswordHash, &a.MasterPasswordHash, &a.Endpoint,
		&a.CreatedOn, &a.LastUpdate, &a.Expiry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *SQLRepository) Insert(ctx context.Context, a *models.Address) error {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		a.ID, a.AccessPasswordHash, a.MasterPasswordHash, a.Endpoint,
		a.CreatedOn, a.LastUpdate, a.Expiry,
	)
	if err != nil {
		if r.isDuplicate(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Update(ctx context.Context, id, endpoint string, lastUpdate, expiry int64) error {
	res, err := r.db.ExecContext(ctx, r.q.update, endpoint, lastUpdate, expiry, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q.delete, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res)
}

func (r *SQLRepository) ListExpired(ctx context.Context, nowMs int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.q.listExpired, models.Never, nowMs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
