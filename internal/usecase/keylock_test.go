package usecase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	kl := NewKeyLock()

	const workers = 16
	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.Lock("AAPL|2025-Q3")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical, "same-key sections must not overlap")
}

func TestKeyLockDistinctKeysIndependent(t *testing.T) {
	kl := NewKeyLock()

	unlockA := kl.Lock("AAPL|2025-Q3")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := kl.Lock("MSFT|2025-Q3")
		unlock()
		close(done)
	}()
	<-done
}

func TestKeyLockReusableAfterUnlock(t *testing.T) {
	kl := NewKeyLock()
	unlock := kl.Lock("k")
	unlock()
	unlock = kl.Lock("k")
	unlock()
}
