package ledger

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
)

// walletLocks serializes mutations per wallet. Every mutation reads and may
// rewrite the wallet's whole balance chain, so concurrent mutations on the
// same wallet must not interleave; different wallets proceed independently.
type walletLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sync.Mutex
}

func newWalletLocks() *walletLocks {
	return &walletLocks{m: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *walletLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	wl, ok := l.m[id]
	if !ok {
		wl = &sync.Mutex{}
		l.m[id] = wl
	}
	return wl
}

// lock acquires the wallet's mutex and returns the unlock function
func (l *walletLocks) lock(id uuid.UUID) func() {
	wl := l.get(id)
	wl.Lock()
	return wl.Unlock
}

// lockPair acquires two wallet mutexes in ascending ID order, so concurrent
// transfers over the same pair of wallets in opposite directions cannot
// deadlock. Equal IDs take a single lock.
func (l *walletLocks) lockPair(a, b uuid.UUID) func() {
	if a == b {
		return l.lock(a)
	}
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	unlockA := l.lock(a)
	unlockB := l.lock(b)
	return func() {
		unlockB()
		unlockA()
	}
}
