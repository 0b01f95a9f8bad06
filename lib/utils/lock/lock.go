package lock

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

type keyLock struct {
	ch   chan struct{}
	refs int
}

var (
	mu    sync.Mutex
	locks = map[string]*keyLock{}
)

// acquire registers interest in key; the entry lives while refs > 0
func acquire(key string) *keyLock {
	mu.Lock()
	defer mu.Unlock()
	l, ok := locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		locks[key] = l
	}
	l.refs++
	return l
}

func release(key string, l *keyLock) {
	mu.Lock()
	defer mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(locks, key)
	}
}

// WithKey runs safeCode while holding the in-process lock for key.
// Waiting is bounded by ctx.
func WithKey(ctx context.Context, key string, safeCode func() error) error {
	l := acquire(key)
	defer release(key, l)
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "wait for lock %s", key)
	}
	defer func() { <-l.ch }()
	return safeCode()
}

func size() int {
	mu.Lock()
	defer mu.Unlock()
	return len(locks)
}
