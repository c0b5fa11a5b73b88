package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	updated      time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter used with the embedded store.
// Counters are lost on restart.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu sync.Mutex
	m  map[string]*attempt
}

// NewMemory returns an empty in-memory limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, now: time.Now, m: make(map[string]*attempt)}
}

func key(username string, ipHash []byte) string { return username + "\x00" + string(ipHash) }

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *Memory) Allow(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.m[key(username, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if wait := a.blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success clears the counters for (username, ip).
func (l *Memory) Success(_ context.Context, username string, ipHash []byte) error {
	l.mu.Lock()
	delete(l.m, key(username, ipHash))
	l.mu.Unlock()
	return nil
}

// Failure counts a failed attempt and blocks once the policy threshold is reached.
func (l *Memory) Failure(_ context.Context, username string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := key(username, ipHash)
	a, ok := l.m[k]
	switch {
	case !ok:
		a = &attempt{}
		l.m[k] = a
		fallthrough
	case now.Sub(a.updated) > l.policy.Window:
		a.fails = 1
	default:
		a.fails++
	}
	a.updated = now
	if a.fails < l.policy.MaxFails {
		return false, 0, nil
	}
	a.blockedUntil = now.Add(l.policy.BlockFor)
	return true, l.policy.BlockFor, nil
}
