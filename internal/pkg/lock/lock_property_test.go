// Package lock provides per-account locking for concurrent ledger operations.
// Property-based tests for concurrent balance safety.
package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafetyProperty verifies that concurrent read-modify-write
// operations on the same account, run under the account lock, end at the same
// balance sequential execution would produce.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		accountID := rapid.Int64Range(1, 1000000).Draw(t, "accountID")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		al := NewAccountLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(delta int64) {
				defer wg.Done()
				al.Lock(accountID)
				defer al.Unlock(accountID)
				balance += delta
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("balance mismatch: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initialBalance, numOps)
		}
	})
}

// TestPairLockOrderingProperty runs transfers between random account pairs in
// both directions concurrently. Pair locks acquire in ascending ID order, so
// the test completing at all shows the ordering prevents deadlock, and the
// conserved total shows mutual exclusion held.
func TestPairLockOrderingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(1, 1000).Draw(t, "accountA")
		b := rapid.Int64Range(1001, 2000).Draw(t, "accountB")
		rounds := rapid.IntRange(2, 30).Draw(t, "rounds")

		al := NewAccountLock()
		balances := map[int64]int64{a: 10000, b: 10000}
		total := balances[a] + balances[b]

		var wg sync.WaitGroup
		wg.Add(rounds * 2)
		for i := 0; i < rounds; i++ {
			// Opposite directions on the same pair stress the ordering.
			go func() {
				defer wg.Done()
				_ = al.WithPairLock(a, b, func() error {
					balances[a] -= 10
					balances[b] += 10
					return nil
				})
			}()
			go func() {
				defer wg.Done()
				_ = al.WithPairLock(b, a, func() error {
					balances[b] -= 10
					balances[a] += 10
					return nil
				})
			}()
		}
		wg.Wait()

		if got := balances[a] + balances[b]; got != total {
			t.Fatalf("total not conserved: expected %d, got %d", total, got)
		}
	})
}

// TestPairLockSameAccount checks that a pair lock on a single account does
// not self-deadlock.
func TestPairLockSameAccount(t *testing.T) {
	al := NewAccountLock()
	ran := false
	err := al.WithPairLock(42, 42, func() error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("pair lock on same account did not run: err=%v ran=%v", err, ran)
	}
}

func TestTryLock(t *testing.T) {
	al := NewAccountLock()

	if !al.TryLock(7) {
		t.Fatal("TryLock on a free account should succeed")
	}
	if al.TryLock(7) {
		t.Fatal("TryLock on a held account should fail")
	}
	if !al.IsLocked(7) {
		t.Fatal("IsLocked should report the held lock")
	}
	al.Unlock(7)
	if al.IsLocked(7) {
		t.Fatal("IsLocked should report the lock released")
	}
}
