package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairLocksSerializeSameKey(t *testing.T) {
	locks := newPairLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("a|b|venue-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestPairLocksReleaseCleansUpIdleEntries(t *testing.T) {
	locks := newPairLocks()

	release := locks.acquire("a|b|venue-1")
	other := locks.acquire("c|d|venue-2")
	release()
	other()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestPairLocksDistinctKeysDoNotBlock(t *testing.T) {
	locks := newPairLocks()

	release := locks.acquire("a|b|venue-1")
	defer release()

	done := make(chan struct{})
	go func() {
		other := locks.acquire("a|b|venue-2")
		other()
		close(done)
	}()
	<-done
}
