package addresses

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/server/models"
)

// MemoryRepository keeps records in a map. Records are copied on the way
// in and out so callers never share state with the store.
type MemoryRepository struct {
	mu   sync.RWMutex
	recs map[string]models.Address
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{recs: make(map[string]models.Address)}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.recs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) Insert(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recs[a.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.recs[a.ID] = *a
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, id, endpoint string, lastUpdate, expiry int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.recs[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Endpoint = endpoint
	a.LastUpdate = lastUpdate
	a.Expiry = expiry
	r.recs[id] = a
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recs[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.recs, id)
	return nil
}

func (r *MemoryRepository) ListExpired(_ context.Context, nowMs int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, a := range r.recs {
		if a.Expiry != models.Never && a.Expiry < nowMs {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Replace stores a under its id whether or not the id is taken.
func (r *MemoryRepository) Replace(_ context.Context, a *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recs[a.ID] = *a
	return nil
}
