// Package lock provides per-account locking for concurrent ledger operations.
package lock

import (
	"sync"
)

// accountMutex wraps a mutex with reference counting for cleanup.
type accountMutex struct {
	mu       sync.Mutex
	refCount int
}

// AccountLock provides per-account locking to prevent race conditions
// during balance operations. Two concurrent ledger operations on the same
// account serialize; operations on different accounts proceed independently.
type AccountLock struct {
	locks sync.Map // map[int64]*accountMutex
	pool  sync.Pool
}

// NewAccountLock creates a new AccountLock instance.
func NewAccountLock() *AccountLock {
	return &AccountLock{
		pool: sync.Pool{
			New: func() any {
				return &accountMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given account ID.
func (al *AccountLock) getLock(accountID int64) *accountMutex {
	if v, ok := al.locks.Load(accountID); ok {
		return v.(*accountMutex)
	}

	newLock := al.pool.Get().(*accountMutex)
	newLock.refCount = 0

	actual, loaded := al.locks.LoadOrStore(accountID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		al.pool.Put(newLock)
	}
	return actual.(*accountMutex)
}

// Lock acquires the lock for an account.
// This should be called before any balance-modifying operation.
func (al *AccountLock) Lock(accountID int64) {
	lock := al.getLock(accountID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for an account.
func (al *AccountLock) Unlock(accountID int64) {
	if v, ok := al.locks.Load(accountID); ok {
		lock := v.(*accountMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (al *AccountLock) TryLock(accountID int64) bool {
	lock := al.getLock(accountID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the account's lock.
func (al *AccountLock) WithLock(accountID int64, fn func() error) error {
	al.Lock(accountID)
	defer al.Unlock(accountID)
	return fn()
}

// WithPairLock executes a function while holding the locks for two accounts,
// as needed by a two-party transfer. Locks are always acquired in ascending
// ID order so that concurrent transfers cannot deadlock.
func (al *AccountLock) WithPairLock(a, b int64, fn func() error) error {
	if a == b {
		return al.WithLock(a, fn)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	al.Lock(first)
	defer al.Unlock(first)
	al.Lock(second)
	defer al.Unlock(second)
	return fn()
}

// IsLocked checks if an account currently has an active lock.
// Note: this is a point-in-time check and may change immediately after.
func (al *AccountLock) IsLocked(accountID int64) bool {
	if v, ok := al.locks.Load(accountID); ok {
		lock := v.(*accountMutex)
		if lock.mu.TryLock() {
			lock.mu.Unlock()
			return false
		}
		return true
	}
	return false
}
