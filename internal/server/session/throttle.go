package session

import (
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	readTokenBurst  = 6
	readTokenRefill = 10 * time.Second

	throttleShards = 32
)

// ReadThrottle limits how many read tokens one id can be issued: a bucket of
// six, refilled by one every ten seconds. Buckets are created full on first
// use.
type ReadThrottle struct {
	limit  rate.Limit
	burst  int
	now    func() time.Time
	shards [throttleShards]throttleShard
}

type throttleShard struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewReadThrottle returns an empty throttle. A nil now means time.Now.
func NewReadThrottle(now func() time.Time) *ReadThrottle {
	if now == nil {
		now = time.Now
	}
	t := &ReadThrottle{
		limit: rate.Every(readTokenRefill),
		burst: readTokenBurst,
		now:   now,
	}
	for i := range t.shards {
		t.shards[i].limiters = make(map[string]*rate.Limiter)
	}
	return t
}

// TryAcquire takes one token from the id's bucket without waiting.
func (t *ReadThrottle) TryAcquire(id string) bool {
	return t.limiter(id).AllowN(t.now(), 1)
}

// Reset gives id a fresh, full bucket.
func (t *ReadThrottle) Reset(id string) {
	s := t.shard(id)
	s.mu.Lock()
	s.limiters[id] = rate.NewLimiter(t.limit, t.burst)
	s.mu.Unlock()
}

// Forget drops the id's bucket.
func (t *ReadThrottle) Forget(id string) {
	s := t.shard(id)
	s.mu.Lock()
	delete(s.limiters, id)
	s.mu.Unlock()
}

// Len reports how many buckets are held.
func (t *ReadThrottle) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.limiters)
		s.mu.RUnlock()
	}
	return n
}

func (t *ReadThrottle) limiter(id string) *rate.Limiter {
	s := t.shard(id)

	s.mu.RLock()
	l, ok := s.limiters[id]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = s.limiters[id]; ok {
		return l
	}
	l = rate.NewLimiter(t.limit, t.burst)
	s.limiters[id] = l
	return l
}

func (t *ReadThrottle) shard(id string) *throttleShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &t.shards[h.Sum32()%throttleShards]
}
