package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/repository"
)

// ErrTicketNotFound is returned for a missing or already-answered ticket.
var ErrTicketNotFound = errors.New("support ticket not found")

// SupportService handles support tickets: users open them, admins answer
// them once, and the answer is forwarded best-effort.
type SupportService struct {
	supportRepo *repository.SupportRepository
}

// NewSupportService creates a new SupportService instance.
func NewSupportService(supportRepo *repository.SupportRepository) *SupportService {
	return &SupportService{supportRepo: supportRepo}
}

// Open creates a new support ticket for the account.
func (s *SupportService) Open(ctx context.Context, accountID int64, message string) (*model.SupportTicket, error) {
	return s.supportRepo.Create(ctx, accountID, message)
}

// ListOpen retrieves the unanswered tickets, oldest first.
func (s *SupportService) ListOpen(ctx context.Context) ([]*model.SupportTicket, error) {
	return s.supportRepo.ListOpen(ctx)
}

// Reply answers a ticket and forwards the reply to the ticket owner.
// Notification failure does not undo the reply.
func (s *SupportService) Reply(ctx context.Context, ticketID int64, reply string, notifier Notifier) (*model.SupportTicket, error) {
	ticket, err := s.supportRepo.Reply(ctx, ticketID, reply)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	if notifier != nil {
		msg := "📩 رد فريق الدعم:\n\n" + reply
		if err := notifier.Notify(ticket.AccountID, msg); err != nil {
			log.Warn().Err(err).Int64("account_id", ticket.AccountID).Msg("Support reply notification failed")
		}
	}
	return ticket, nil
}
