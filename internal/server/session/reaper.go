package session

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lip/internal/logging"
)

// Reaper purges expired addresses in the background. Expiry is enforced
// lazily either way; the reaper only keeps the table small.
type Reaper struct {
	engine   *Engine
	interval time.Duration
	log      logging.Logger
}

func NewReaper(engine *Engine, interval time.Duration, log logging.Logger) *Reaper {
	return &Reaper{engine: engine, interval: interval, log: log}
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.Sweep(ctx); err != nil {
				r.log.Warn(ctx, "reaper sweep failed", "error", err, "purged", n)
			} else if n > 0 {
				r.log.Info(ctx, "reaper purged expired addresses", "purged", n)
			}
		}
	}
}

// Sweep runs one pass and returns how many addresses were purged.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	ids, err := r.engine.store.ListExpired(ctx, r.engine.now().UnixMilli())
	if err != nil {
		return 0, err
	}

	n := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		purged, err := r.engine.PurgeIfExpired(ctx, id)
		if err != nil {
			return n, err
		}
		if purged {
			n++
		}
	}
	return n, nil
}
