package usecase

import (
	"context"
	"sync"
)

// keyedLocks hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits for them, so the table stays bounded by
// the number of payments in flight.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	token chan struct{}
	refs  int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free or ctx is done.
func (l *keyedLocks) Lock(ctx context.Context, key string) (func(), error) {
	entry := l.acquire(key)
	select {
	case entry.token <- struct{}{}:
		return l.unlocker(key, entry), nil
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}
}

// TryLock never blocks.
func (l *keyedLocks) TryLock(key string) (func(), bool) {
	entry := l.acquire(key)
	select {
	case entry.token <- struct{}{}:
		return l.unlocker(key, entry), true
	default:
		l.release(key, entry)
		return nil, false
	}
}

func (l *keyedLocks) acquire(key string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedLock{token: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (l *keyedLocks) release(key string, entry *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

func (l *keyedLocks) unlocker(key string, entry *keyedLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.token
			l.release(key, entry)
		})
	}
}

func (l *keyedLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
