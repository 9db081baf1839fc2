package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreGetCreatesOnce(t *testing.T) {
	store := NewStore()

	sess := store.Get(1, StateAwaitingName)
	assert.Equal(t, StateAwaitingName, sess.State)

	// A second Get returns the same session even with a different initial state
	again := store.Get(1, StateMainMenu)
	assert.Same(t, sess, again)
	assert.Equal(t, StateAwaitingName, again.State)
}

func TestStorePeek(t *testing.T) {
	store := NewStore()

	_, ok := store.Peek(1)
	assert.False(t, ok)

	store.Get(1, StateMainMenu)
	sess, ok := store.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, StateMainMenu, sess.State)
}

func TestStoreResetDiscardsScratch(t *testing.T) {
	store := NewStore()

	sess := store.Get(1, StateAwaitingTransferAmount)
	sess.TransferRecipientCode = "ABCD1234"
	sess.Admin = true

	fresh := store.Reset(1, StateMainMenu)
	assert.Equal(t, StateMainMenu, fresh.State)
	assert.Empty(t, fresh.TransferRecipientCode)
	assert.False(t, fresh.Admin)
	assert.NotSame(t, sess, fresh)
}

func TestStoreDrop(t *testing.T) {
	store := NewStore()
	store.Get(1, StateMainMenu)
	store.Drop(1)

	_, ok := store.Peek(1)
	assert.False(t, ok)
}

func TestStoreConcurrentGet(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	sessions := make([]*Session, 50)
	wg.Add(len(sessions))
	for i := range sessions {
		go func(i int) {
			defer wg.Done()
			sessions[i] = store.Get(7, StateMainMenu)
		}(i)
	}
	wg.Wait()

	// Every goroutine must have observed the same session instance
	for _, sess := range sessions {
		assert.Same(t, sessions[0], sess)
	}
}

func TestStatePredicates(t *testing.T) {
	// Registration states precede everything else
	for _, s := range []State{StateAwaitingName, StateAwaitingStage, StateAwaitingCountry, StateAwaitingReferralCode} {
		assert.True(t, s.IsRegistration(), "state=%d", s)
		assert.False(t, s.IsAdmin(), "state=%d", s)
	}

	assert.False(t, StateMainMenu.IsRegistration())
	assert.False(t, StateMainMenu.IsAdmin())
	assert.False(t, StateAwaitingConvertAmount.IsAdmin())
	assert.False(t, StateTasksMenu.IsAdmin())

	// Everything from the password prompt onward is the admin branch
	for _, s := range []State{
		StateAwaitingAdminPassword,
		StateAdminMenu,
		StateAwaitingBroadcastText,
		StateAwaitingGrantCurrencyAmount,
		StateAwaitingContactInstagram,
	} {
		assert.True(t, s.IsAdmin(), "state=%d", s)
		assert.False(t, s.IsRegistration(), "state=%d", s)
	}
}
