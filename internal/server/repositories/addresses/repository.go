// Package addresses persists address records. Two SQL dialects share one
// implementation; an in-memory repository backs tests and ephemeral runs.
package addresses

import (
	"context"

	"github.com/dmitrijs2005/lip/internal/server/models"
)

// Repository is the record store. Lookups of an absent id return
// common.ErrorNotFound and inserting a taken id returns
// common.ErrorAlreadyExists; any other error is a storage failure.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Address, error)
	Insert(ctx context.Context, a *models.Address) error
	Update(ctx context.Context, id, endpoint string, lastUpdate, expiry int64) error
	Delete(ctx context.Context, id string) error
	// ListExpired returns the ids whose finite expiry lies before nowMs.
	ListExpired(ctx context.Context, nowMs int64) ([]string, error)
}
