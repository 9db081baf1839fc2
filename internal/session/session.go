// Package session holds the ephemeral per-conversation state machine data.
// A session exists only while a user is interacting; it is rebuilt from the
// account record on /start and discarded freely.
package session

import (
	"sync"
	"time"
)

// State identifies the conversation position of a session.
type State int

// Conversation states. MainMenu is the steady state: every sub-flow is
// entered from it and returns to it.
const (
	StateAwaitingName State = iota
	StateAwaitingStage
	StateAwaitingCountry
	StateAwaitingReferralCode
	StateMainMenu
	StateAwaitingConvertAmount
	StateAwaitingTransferRecipient
	StateAwaitingTransferAmount
	StateAwaitingSupportMessage
	StateTasksMenu
	StateAwaitingAdminPassword
	StateAdminMenu
	StateAwaitingPremiumActivationCode
	StateAwaitingPremiumDeactivationCode
	StateAwaitingGiftPremiumCode
	StateAwaitingBroadcastText
	StateAwaitingNewPrice
	StateAwaitingNewManagerCode
	StateAwaitingSupportReply
	StateAwaitingTaskLink
	StateAwaitingTaskDescription
	StateAwaitingTaskPoints
	StateAwaitingGrantPointsCode
	StateAwaitingGrantPointsAmount
	StateAwaitingGrantCurrencyCode
	StateAwaitingGrantCurrencyAmount
	StateAwaitingContactEmail
	StateAwaitingContactInstagram
)

// IsAdmin reports whether the state belongs to the admin branch.
func (s State) IsAdmin() bool {
	return s >= StateAwaitingAdminPassword
}

// IsRegistration reports whether the state is part of the registration
// wizard, before an account exists.
func (s State) IsRegistration() bool {
	return s <= StateAwaitingReferralCode
}

// RegistrationDraft collects the registration wizard answers.
type RegistrationDraft struct {
	FullName string
	Stage    string
	Country  string
}

// TaskDraft collects the admin task-creation wizard answers.
type TaskDraft struct {
	Link        string
	Description string
}

// Session is the per-conversation scratch space. Only the fields relevant
// to the active state carry meaning; everything resets on /start.
type Session struct {
	State State

	// Registration wizard
	Draft RegistrationDraft

	// Wallet flows
	TransferRecipientCode string

	// Admin branch
	Admin          bool
	GrantTarget    string
	TaskDraft      TaskDraft
	ReplyTicketID  int64

	// Ad ritual
	RitualStartedAt time.Time
	BlockedQuestion string
}

// Store keeps sessions keyed by Telegram ID. Each conversation is handled
// by one goroutine at a time, so sessions need no internal locking; the
// store itself is safe for concurrent access.
type Store struct {
	sessions sync.Map // map[int64]*Session
}

// NewStore creates a new session store.
func NewStore() *Store {
	return &Store{}
}

// Get retrieves the session for a user, creating one in the given initial
// state when none exists.
func (s *Store) Get(userID int64, initial State) *Session {
	if v, ok := s.sessions.Load(userID); ok {
		return v.(*Session)
	}
	sess := &Session{State: initial}
	actual, _ := s.sessions.LoadOrStore(userID, sess)
	return actual.(*Session)
}

// Peek retrieves the session for a user without creating one.
func (s *Store) Peek(userID int64) (*Session, bool) {
	v, ok := s.sessions.Load(userID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Reset replaces the user's session with a fresh one in the given state,
// discarding all scratch data.
func (s *Store) Reset(userID int64, state State) *Session {
	sess := &Session{State: state}
	s.sessions.Store(userID, sess)
	return sess
}

// Drop removes the user's session entirely.
func (s *Store) Drop(userID int64) {
	s.sessions.Delete(userID)
}
