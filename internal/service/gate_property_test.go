// Property-based tests for the ad gate decision and ritual timing.
package service

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/model"
)

// TestGateShouldBlockProperty verifies the blocking decision: a free account
// blocks exactly when its checkpoint counter reaches the limit, and a premium
// account never blocks regardless of its counter.
func TestGateShouldBlockProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.Int64Range(1, 20).Draw(t, "limit")
		counter := rapid.Int64Range(0, 40).Draw(t, "counter")
		premium := rapid.Bool().Draw(t, "premium")

		gate := NewGateService(nil, nil, nil, config.GateConfig{ResponseLimit: limit})
		account := &model.Account{Premium: premium, ResponsesSinceAd: counter}

		blocked := gate.ShouldBlock(account)
		want := !premium && counter >= limit
		if blocked != want {
			t.Fatalf("ShouldBlock=%v, want %v (premium=%v, counter=%d, limit=%d)",
				blocked, want, premium, counter, limit)
		}
	})
}

// TestCompleteRitualTooSoonProperty verifies that a ritual continued before
// the required viewing time always fails with the remaining wait, without
// touching storage (the repositories are nil and would panic if reached).
func TestCompleteRitualTooSoonProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		requiredSeconds := rapid.IntRange(2, 60).Draw(t, "requiredSeconds")
		// Elapse strictly less than required.
		elapsedMs := rapid.Int64Range(0, int64(requiredSeconds)*1000-500).Draw(t, "elapsedMs")

		gate := NewGateService(nil, nil, nil, config.GateConfig{RequiredSeconds: requiredSeconds})
		startedAt := time.Now().Add(-time.Duration(elapsedMs) * time.Millisecond)

		remaining, err := gate.CompleteRitual(nil, 1, startedAt)
		if err != ErrRitualTooSoon {
			t.Fatalf("expected ErrRitualTooSoon, got %v", err)
		}
		if remaining <= 0 {
			t.Fatalf("remaining wait should be positive, got %v", remaining)
		}
		if remaining > time.Duration(requiredSeconds)*time.Second {
			t.Fatalf("remaining %v exceeds the full requirement %ds", remaining, requiredSeconds)
		}
	})
}

func TestGateAccessors(t *testing.T) {
	gate := NewGateService(nil, nil, nil, config.GateConfig{
		AdLink:          "https://example.com/ad",
		RequiredSeconds: 5,
		Bonus:           5,
	})

	if gate.AdLink() != "https://example.com/ad" {
		t.Fatalf("unexpected ad link %q", gate.AdLink())
	}
	if gate.RequiredViewing() != 5*time.Second {
		t.Fatalf("unexpected required viewing %v", gate.RequiredViewing())
	}
	if gate.Bonus() != 5 {
		t.Fatalf("unexpected bonus %d", gate.Bonus())
	}
}
