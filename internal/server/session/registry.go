package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lip/internal/server/auth"
)

// WriteTokenRegistry remembers the single write token currently on file for
// each id. A token that is not on file is never accepted for writing.
//
// Issue and Invalidate must be called with the id's lock held.
type WriteTokenRegistry struct {
	mu      sync.Mutex
	byID    map[string]string
	byToken map[string]string

	codec  TokenCodec
	tokens *TokenAuthenticator
	now    func() time.Time
}

func newWriteTokenRegistry(codec TokenCodec, now func() time.Time) *WriteTokenRegistry {
	return &WriteTokenRegistry{
		byID:    make(map[string]string),
		byToken: make(map[string]string),
		codec:   codec,
		now:     now,
	}
}

// Issue mints a write token for id, bound to the record created at
// createdOn, unless the one on file still verifies. A token on file that
// fails verification is dropped and replaced.
func (r *WriteTokenRegistry) Issue(ctx context.Context, id string, createdOn int64) (string, error) {
	if cur, ok := r.Current(id); ok {
		p, err := r.tokens.Decode(cur)
		if err == nil {
			_, err = r.tokens.Check(ctx, p, cur, auth.ModeWrite)
		}
		switch {
		case err == nil:
			return "", ErrWriteTokenExists
		case !errors.Is(err, ErrDenied):
			return "", err
		}
		r.RemoveIfEqual(id, cur)
	}

	token, err := r.codec.Sign(auth.Payload{
		ID:        id,
		Mode:      auth.ModeWrite,
		IssuedAt:  r.now().UnixMilli(),
		CreatedOn: createdOn,
	})
	if err != nil {
		return "", fmt.Errorf("sign write token: %w", err)
	}

	r.set(id, token)
	return token, nil
}

// Invalidate removes token if it is the one on file for id and it still
// verifies as a write token. It reports whether anything was removed.
func (r *WriteTokenRegistry) Invalidate(ctx context.Context, id, token string) (bool, error) {
	if cur, ok := r.Current(id); !ok || cur != token {
		return false, nil
	}

	p, err := r.tokens.Decode(token)
	if err == nil {
		_, err = r.tokens.Check(ctx, p, token, auth.ModeWrite)
	}
	if err != nil {
		if errors.Is(err, ErrDenied) {
			return false, nil
		}
		return false, err
	}

	r.RemoveIfEqual(id, token)
	return true, nil
}

// RevokeForID drops whatever token is on file for id.
func (r *WriteTokenRegistry) RevokeForID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok, ok := r.byID[id]; ok {
		delete(r.byToken, tok)
		delete(r.byID, id)
	}
}

// Current returns the write token on file for id, if any.
func (r *WriteTokenRegistry) Current(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.byID[id]
	return tok, ok
}

// RemoveIfEqual drops the entry for id only if it still holds token.
func (r *WriteTokenRegistry) RemoveIfEqual(id, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byID[id] == token {
		delete(r.byID, id)
		delete(r.byToken, token)
	}
}

// RemoveToken drops token wherever it is on file.
func (r *WriteTokenRegistry) RemoveToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byToken[token]; ok {
		delete(r.byToken, token)
		if r.byID[id] == token {
			delete(r.byID, id)
		}
	}
}

// Len reports how many ids have a write token on file.
func (r *WriteTokenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *WriteTokenRegistry) set(id, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[id]; ok {
		delete(r.byToken, old)
	}
	r.byID[id] = token
	r.byToken[token] = id
}
