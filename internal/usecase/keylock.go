package usecase

import "sync"

// KeyLock serializes work per string key. Ingestions for the same
// (ticker, period) take the same lock; distinct keys proceed independently.
// Locks are retained for the process lifetime; the key space is bounded by
// the ticker/period universe.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. The returned
// function releases it.
func (k *KeyLock) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
