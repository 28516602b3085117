package shared

import (
	"fmt"
	"sync"
)

// ProductionLockKey builds the lock key for a (production date, product) pair.
func ProductionLockKey(date, product string) string {
	return fmt.Sprintf("production:%s:%s:lock", date, product)
}

// KeyedMutex serialises critical sections per string key. Completion
// transitions are read-modify-write against the previous recorded status,
// so two concurrent transitions for the same (date, product) must not
// interleave.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex constructs a KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key and returns the matching unlock func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
