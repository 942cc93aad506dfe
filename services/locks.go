package services

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// AccountLocks serializes check-then-act sequences per account. Held across
// the claim gate's read-then-mint and across the post-decision ledger write,
// so two in-flight requests for the same address can never both observe the
// same pre-write ledger state.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*sync.Mutex
}

// NewAccountLocks creates an empty lock table.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{
		locks: make(map[common.Address]*sync.Mutex),
	}
}

// Lock acquires the lock for an account, creating it on first use.
func (al *AccountLocks) Lock(addr common.Address) {
	al.mu.Lock()
	lock, exists := al.locks[addr]
	if !exists {
		lock = &sync.Mutex{}
		al.locks[addr] = lock
	}
	al.mu.Unlock()

	lock.Lock()
}

// Unlock releases the lock for an account.
func (al *AccountLocks) Unlock(addr common.Address) {
	al.mu.Lock()
	lock := al.locks[addr]
	al.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}
