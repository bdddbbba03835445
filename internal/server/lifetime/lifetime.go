// Package lifetime computes and checks address expiry. Expiry is stored as
// an absolute millisecond timestamp, or models.Never.
package lifetime

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/server/models"
)

// Unlimited is the requested lifetime meaning "never expires".
const Unlimited int64 = -1

var ErrInvalidLifetime = errors.New("invalid lifetime setting")

// ComputeExpiry turns a lifetime in seconds into an absolute deadline.
func ComputeExpiry(now time.Time, deltaSeconds int64) (int64, error) {
	if deltaSeconds < Unlimited || deltaSeconds > common.MaxLifetimeSeconds {
		return 0, ErrInvalidLifetime
	}
	if deltaSeconds == Unlimited {
		return models.Never, nil
	}
	return now.UnixMilli() + deltaSeconds*1000, nil
}

func IsExpired(now time.Time, expiry int64) bool {
	if expiry == models.Never {
		return false
	}
	return now.UnixMilli() > expiry
}

// CarryForward recomputes the expiry of rec for an update happening at
// now: the budget left at the previous update (or creation) minus the time
// elapsed since then. The result never lies before now.
func CarryForward(now time.Time, rec models.Address) int64 {
	if rec.Expiry == models.Never {
		return models.Never
	}

	anchor := rec.LastUpdate
	if anchor == models.Never {
		anchor = rec.CreatedOn
	}

	nowMs := now.UnixMilli()
	budget := rec.Expiry - anchor
	elapsed := nowMs - anchor
	return nowMs + max(budget-elapsed, 0)
}

// Remaining is the number of whole seconds left before expiry, 0 once the
// deadline has passed, and -1 when the record never expires.
func Remaining(now time.Time, expiry int64) int64 {
	if expiry == models.Never {
		return Unlimited
	}
	return max(expiry-now.UnixMilli(), 0) / 1000
}
