package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/dmitrijs2005/lip/internal/logging"
	"github.com/dmitrijs2005/lip/internal/server/auth"
	"github.com/dmitrijs2005/lip/internal/server/endpoint"
	"github.com/dmitrijs2005/lip/internal/server/lifetime"
	"github.com/dmitrijs2005/lip/internal/server/models"
	"github.com/dmitrijs2005/lip/internal/server/repositories/addresses"
)

// RecordStore is the persistence the engine needs. Replace swaps an expired
// record for a new one in a single step.
type RecordStore interface {
	addresses.Repository
	Replace(ctx context.Context, a *models.Address) error
}

// PasswordHasher turns passwords into the digests stored on a record.
type PasswordHasher interface {
	Digest(plain string) (string, error)
	Compare(hash, plain string) bool
}

// TokenCodec signs and verifies the bearer tokens handed to clients.
type TokenCodec interface {
	Sign(p auth.Payload) (string, error)
	Verify(token string) (auth.Payload, error)
}

// Engine runs the address and token operations. Everything that checks and
// then changes the state of one id does so under that id's lock.
type Engine struct {
	store  RecordStore
	hasher PasswordHasher
	codec  TokenCodec
	log    logging.Logger
	now    func() time.Time

	// last creation time handed out, in milliseconds
	lastCreated atomic.Int64

	locks    *keyedMutex
	registry *WriteTokenRegistry
	throttle *ReadThrottle
	creds    *CredentialAuthenticator
	tokens   *TokenAuthenticator
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now. Give the codec the same clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used when no request logger is in the context.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine wires an engine over store. Without options it logs nothing and
// reads time.Now.
func NewEngine(store RecordStore, hasher PasswordHasher, codec TokenCodec, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		hasher: hasher,
		codec:  codec,
		log:    logging.Nop{},
		now:    time.Now,
		locks:  newKeyedMutex(),
	}
	for _, o := range opts {
		o(e)
	}

	e.throttle = NewReadThrottle(e.now)
	e.registry = newWriteTokenRegistry(codec, e.now)
	e.creds = newCredentialAuthenticator(store, hasher, e.purge, e.now)
	e.tokens = &TokenAuthenticator{
		codec:    codec,
		store:    store,
		registry: e.registry,
		locks:    e.locks,
		purge:    e.purge,
		now:      e.now,
	}
	e.registry.tokens = e.tokens

	return e
}

// Create registers a new address. lifetime is in seconds, nil or -1 meaning
// unlimited. An expired address under the same id is replaced.
func (e *Engine) Create(ctx context.Context, id, accessPw, masterPw string, lifetimeSec *int64) Result {
	switch {
	case strings.TrimSpace(id) == "":
		return fail(StatusBadInput, MsgIDEmpty)
	case strings.TrimSpace(accessPw) == "":
		return fail(StatusBadInput, MsgAccessPasswordEmpty)
	case strings.TrimSpace(masterPw) == "":
		return fail(StatusBadInput, MsgMasterPasswordEmpty)
	}

	delta := lifetime.Unlimited
	if lifetimeSec != nil {
		delta = *lifetimeSec
	}
	if _, err := lifetime.ComputeExpiry(e.now(), delta); err != nil {
		return fail(StatusBadInput, MsgInvalidLifetime)
	}

	accessHash, err := e.hasher.Digest(accessPw)
	if err != nil {
		return e.internal(ctx, "create", id, fmt.Errorf("hash access password: %w", err))
	}
	masterHash, err := e.hasher.Digest(masterPw)
	if err != nil {
		return e.internal(ctx, "create", id, fmt.Errorf("hash master password: %w", err))
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	now := e.now()

	replace := false
	existing, err := e.store.Get(ctx, id)
	switch {
	case err == nil:
		if !lifetime.IsExpired(now, existing.Expiry) {
			return fail(StatusConflict, MsgIDExists)
		}
		replace = true
	case !errors.Is(err, common.ErrorNotFound):
		return e.internal(ctx, "create", id, err)
	}

	expiry, _ := lifetime.ComputeExpiry(now, delta)
	rec := &models.Address{
		ID:                 id,
		AccessPasswordHash: accessHash,
		MasterPasswordHash: masterHash,
		CreatedOn:          e.creationStamp(now),
		LastUpdate:         models.Never,
		Expiry:             expiry,
	}

	if replace {
		err = e.store.Replace(ctx, rec)
	} else {
		err = e.store.Insert(ctx, rec)
	}
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fail(StatusConflict, MsgIDExists)
		}
		return e.internal(ctx, "create", id, err)
	}

	e.registry.RevokeForID(id)
	e.throttle.Reset(id)

	logging.From(ctx, e.log).Info(ctx, "address created", "id", id, "lifetime", delta, "replaced", replace)
	return ok(fmt.Sprintf("created new address '%s'", id))
}

// AcquireToken issues a read or write token after checking the access
// password. Read tokens are throttled per id; only one write token may be
// live per id.
func (e *Engine) AcquireToken(ctx context.Context, id, accessPw, mode string) Result {
	m, valid := auth.ParseMode(mode)
	if !valid {
		return fail(StatusBadInput, MsgInvalidMode)
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	rec, err := e.creds.Authenticate(ctx, id, accessPw, TierAccess)
	if err != nil {
		return e.credentialFailure(ctx, "token", id, err)
	}

	switch m {
	case auth.ModeRead:
		if !e.throttle.TryAcquire(id) {
			return fail(StatusRateLimited, MsgTooManyReadTokens)
		}
		token, err := e.codec.Sign(auth.Payload{
			ID:        id,
			Mode:      auth.ModeRead,
			IssuedAt:  e.now().UnixMilli(),
			CreatedOn: rec.CreatedOn,
		})
		if err != nil {
			return e.internal(ctx, "token", id, fmt.Errorf("sign read token: %w", err))
		}
		return ok(token)

	default:
		token, err := e.registry.Issue(ctx, id, rec.CreatedOn)
		if err != nil {
			if errors.Is(err, ErrWriteTokenExists) {
				return fail(StatusConflict, MsgWriteTokenExists)
			}
			return e.internal(ctx, "token", id, err)
		}
		return ok(token)
	}
}

// InvalidateToken withdraws the write token on file for id.
func (e *Engine) InvalidateToken(ctx context.Context, id, accessPw, token string) Result {
	if strings.TrimSpace(token) == "" {
		return fail(StatusBadInput, MsgInvalidJWT)
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	if _, err := e.creds.Authenticate(ctx, id, accessPw, TierAccess); err != nil {
		return e.credentialFailure(ctx, "invalidate", id, err)
	}

	removed, err := e.registry.Invalidate(ctx, id, token)
	if err != nil {
		return e.internal(ctx, "invalidate", id, err)
	}
	if !removed {
		return fail(StatusBadInput, MsgInvalidJWT)
	}
	return ok(MsgInvalidatedJWT)
}

// Update publishes a new endpoint for the address the write token names.
func (e *Engine) Update(ctx context.Context, token, endpointText string) Result {
	ep, err := endpoint.Validate(endpointText)
	if err != nil {
		return fail(StatusBadInput, MsgInvalidEndpoint)
	}

	p, err := e.tokens.Decode(token)
	if err != nil {
		return e.tokenFailure(ctx, "update", "", err)
	}

	unlock := e.locks.Lock(p.ID)
	defer unlock()

	rec, err := e.tokens.Check(ctx, p, token, auth.ModeWrite)
	if err != nil {
		return e.tokenFailure(ctx, "update", p.ID, err)
	}

	// superseded or invalidated write tokens still verify; only the one on
	// file may write
	if cur, onFile := e.registry.Current(p.ID); !onFile || cur != token {
		return fail(StatusUnauthorized, MsgInvalidAuth)
	}

	now := e.now()
	lastUpdate := now.UnixMilli()
	expiry := lifetime.CarryForward(now, *rec)

	if err := e.store.Update(ctx, p.ID, ep, lastUpdate, expiry); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fail(StatusUnauthorized, MsgInvalidAuth)
		}
		return e.internal(ctx, "update", p.ID, err)
	}

	logging.From(ctx, e.log).Debug(ctx, "endpoint updated", "id", p.ID)
	res := ok(ep)
	res.LastUpdate = &lastUpdate
	return res
}

// Retrieve returns the endpoint last published for the address the read
// token names, its last update time and the seconds it has left.
func (e *Engine) Retrieve(ctx context.Context, token string) Result {
	p, err := e.tokens.Decode(token)
	if err != nil {
		return e.tokenFailure(ctx, "retrieve", "", err)
	}

	unlock := e.locks.Lock(p.ID)
	defer unlock()

	rec, err := e.tokens.Check(ctx, p, token, auth.ModeRead)
	if err != nil {
		return e.tokenFailure(ctx, "retrieve", p.ID, err)
	}

	lastUpdate := rec.LastUpdate
	left := lifetime.Remaining(e.now(), rec.Expiry)

	res := ok(rec.Endpoint)
	res.LastUpdate = &lastUpdate
	res.Lifetime = &left
	return res
}

// Delete removes an address after checking its master password.
func (e *Engine) Delete(ctx context.Context, id, masterPw string) Result {
	unlock := e.locks.Lock(id)
	defer unlock()

	if _, err := e.creds.Authenticate(ctx, id, masterPw, TierMaster); err != nil {
		return e.credentialFailure(ctx, "delete", id, err)
	}

	if err := e.purge(ctx, id); err != nil {
		return e.internal(ctx, "delete", id, err)
	}

	logging.From(ctx, e.log).Info(ctx, "address deleted", "id", id)
	return ok(fmt.Sprintf("deleted address '%s'", id))
}

// PurgeIfExpired removes id if it is still present and expired. It reports
// whether it did.
func (e *Engine) PurgeIfExpired(ctx context.Context, id string) (bool, error) {
	unlock := e.locks.Lock(id)
	defer unlock()

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	if !lifetime.IsExpired(e.now(), rec.Expiry) {
		return false, nil
	}
	if err := e.purge(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// purge drops the write token, the read bucket and the record, in that
// order. Callers hold the id's lock.
// creationStamp returns now in milliseconds, bumped past every creation time
// this engine handed out before. Tokens carry the creation time of their
// record, so two records under one id never share it.
func (e *Engine) creationStamp(now time.Time) int64 {
	for {
		last := e.lastCreated.Load()
		ms := max(now.UnixMilli(), last+1)
		if e.lastCreated.CompareAndSwap(last, ms) {
			return ms
		}
	}
}

func (e *Engine) purge(ctx context.Context, id string) error {
	e.registry.RevokeForID(id)
	e.throttle.Forget(id)

	if err := e.store.Delete(ctx, id); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("purge %q: %w", id, err)
	}
	return nil
}

func (e *Engine) credentialFailure(ctx context.Context, op, id string, err error) Result {
	if errors.Is(err, ErrDenied) {
		return fail(StatusUnauthorized, MsgBadCredentials)
	}
	return e.internal(ctx, op, id, err)
}

func (e *Engine) tokenFailure(ctx context.Context, op, id string, err error) Result {
	reason, denied := ReasonOf(err)
	if !denied {
		return e.internal(ctx, op, id, err)
	}

	logging.From(ctx, e.log).Debug(ctx, "token denied", "op", op, "id", id, "reason", reason.String())
	if reason == ReasonWrongMode {
		return fail(StatusUnauthorized, MsgInvalidTokenMode)
	}
	return fail(StatusUnauthorized, MsgInvalidAuth)
}

func (e *Engine) internal(ctx context.Context, op, id string, err error) Result {
	logging.From(ctx, e.log).Error(ctx, "operation failed", "op", op, "id", id, "error", err)
	return internal()
}
