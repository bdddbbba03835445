package repomanager

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/dbx"
	"github.com/dmitrijs2005/lip/internal/server/models"
)

// Store is the record store the session engine talks to: the manager's
// repository bound to an open database, plus Replace, which swaps an
// expired incarnation for a new one in a single transaction.
type Store struct {
	db *sql.DB
	m  RepositoryManager
}

func NewStore(db *sql.DB, m RepositoryManager) *Store {
	return &Store{db: db, m: m}
}

func (s *Store) Get(ctx context.Context, id string) (*models.Address, error) {
	return s.m.Addresses(s.db).Get(ctx, id)
}

func (s *Store) Insert(ctx context.Context, a *models.Address) error {
	return s.m.Addresses(s.db).Insert(ctx, a)
}

func (s *Store) Update(ctx context.Context, id, endpoint string, lastUpdate, expiry int64) error {
	return s.m.Addresses(s.db).Update(ctx, id, endpoint, lastUpdate, expiry)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.m.Addresses(s.db).Delete(ctx, id)
}

func (s *Store) ListExpired(ctx context.Context, nowMs int64) ([]string, error) {
	return s.m.Addresses(s.db).ListExpired(ctx, nowMs)
}

// Replace deletes any record stored under a.ID and inserts a.
func (s *Store) Replace(ctx context.Context, a *models.Address) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.m.Addresses(tx)
		if err := repo.Delete(ctx, a.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return repo.Insert(ctx, a)
	})
}
