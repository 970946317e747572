package service

import "sync"

// pairLocks serializes aggregation per canonical pair+venue key. Concurrent
// detections naming the same pair must not interleave between the open-record
// lookup and the insert, or the count invariant breaks. Entries are reference
// counted and dropped once idle so the map does not grow with every pair ever
// seen.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

// acquire blocks until the key's lock is held and returns the release func.
func (p *pairLocks) acquire(key string) func() {
	p.mu.Lock()
	entry, ok := p.locks[key]
	if !ok {
		entry = &pairLock{}
		p.locks[key] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
