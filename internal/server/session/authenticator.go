package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/server/auth"
	"github.com/dmitrijs2005/lip/internal/server/lifetime"
	"github.com/dmitrijs2005/lip/internal/server/models"
)

// Tier selects which of the two passwords of an address is checked.
type Tier int

const (
	TierAccess Tier = iota
	TierMaster
)

// purgeFunc removes an address with everything attached to it. Callers hold
// the id's lock.
type purgeFunc func(ctx context.Context, id string) error

// CredentialAuthenticator checks an id and one of its passwords.
// Callers hold the id's lock.
type CredentialAuthenticator struct {
	store  RecordStore
	hasher PasswordHasher
	purge  purgeFunc
	now    func() time.Time

	// compared against when the id is unknown so both paths cost the same
	dummyHash string
}

func newCredentialAuthenticator(store RecordStore, hasher PasswordHasher, purge purgeFunc, now func() time.Time) *CredentialAuthenticator {
	dummy, _ := hasher.Digest("lip")
	return &CredentialAuthenticator{
		store:     store,
		hasher:    hasher,
		purge:     purge,
		now:       now,
		dummyHash: dummy,
	}
}

// Authenticate returns the record when password matches the tier's hash.
// An expired record is purged and treated as absent.
func (a *CredentialAuthenticator) Authenticate(ctx context.Context, id, password string, tier Tier) (*models.Address, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.hasher.Compare(a.dummyHash, password)
			return nil, deny(ReasonBadCredentials)
		}
		return nil, fmt.Errorf("load address: %w", err)
	}

	if lifetime.IsExpired(a.now(), rec.Expiry) {
		if err := a.purge(ctx, id); err != nil {
			return nil, err
		}
		return nil, deny(ReasonBadCredentials)
	}

	hash := rec.AccessPasswordHash
	if tier == TierMaster {
		hash = rec.MasterPasswordHash
	}
	if !a.hasher.Compare(hash, password) {
		return nil, deny(ReasonBadCredentials)
	}

	return rec, nil
}

// TokenAuthenticator verifies bearer tokens against the codec, the record
// they name and the required mode. Every failure that shows a token to be
// useless also drops it from the write-token registry.
type TokenAuthenticator struct {
	codec    TokenCodec
	store    RecordStore
	registry *WriteTokenRegistry
	locks    *keyedMutex
	purge    purgeFunc
	now      func() time.Time
}

// Authenticate runs the full check under the lock of the id the token names
// and returns that id.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string, mode auth.Mode) (string, error) {
	p, err := a.Decode(token)
	if err != nil {
		return "", err
	}

	unlock := a.locks.Lock(p.ID)
	defer unlock()

	if _, err := a.Check(ctx, p, token, mode); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Decode is the lock-free half: presence and signature/expiry of the token.
func (a *TokenAuthenticator) Decode(token string) (auth.Payload, error) {
	if strings.TrimSpace(token) == "" {
		return auth.Payload{}, deny(ReasonNoToken)
	}

	p, err := a.codec.Verify(token)
	if err != nil {
		a.registry.RemoveToken(token)
		return auth.Payload{}, deny(ReasonInvalidToken)
	}
	return p, nil
}

// Check is the half that needs the record. Callers hold the lock of p.ID.
func (a *TokenAuthenticator) Check(ctx context.Context, p auth.Payload, token string, mode auth.Mode) (*models.Address, error) {
	rec, err := a.store.Get(ctx, p.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.registry.RemoveToken(token)
			return nil, deny(ReasonUnknownSubject)
		}
		return nil, fmt.Errorf("load address: %w", err)
	}

	// a token minted for an earlier address under the same id
	if rec.CreatedOn != p.CreatedOn {
		a.registry.RemoveToken(token)
		return nil, deny(ReasonStaleSubject)
	}

	if lifetime.IsExpired(a.now(), rec.Expiry) {
		if err := a.purge(ctx, p.ID); err != nil {
			return nil, err
		}
		a.registry.RemoveToken(token)
		return nil, deny(ReasonExpiredSubject)
	}

	if p.Mode != mode {
		return nil, deny(ReasonWrongMode)
	}

	return rec, nil
}
