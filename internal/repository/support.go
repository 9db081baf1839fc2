package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"study-assistant-bot/internal/model"
)

// ErrTicketNotFound is returned when a support ticket does not exist.
var ErrTicketNotFound = errors.New("support ticket not found")

// SupportRepository handles support tickets.
type SupportRepository struct {
	pool *pgxpool.Pool
}

// NewSupportRepository creates a new SupportRepository instance.
func NewSupportRepository(pool *pgxpool.Pool) *SupportRepository {
	return &SupportRepository{pool: pool}
}

// Create opens a new support ticket.
func (r *SupportRepository) Create(ctx context.Context, accountID int64, message string) (*model.SupportTicket, error) {
	const query = `
		INSERT INTO support_tickets (account_id, message, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, account_id, message, reply, answered, created_at, replied_at
	`

	var t model.SupportTicket
	err := r.pool.QueryRow(ctx, query, accountID, message).Scan(
		&t.ID, &t.AccountID, &t.Message, &t.Reply, &t.Answered, &t.CreatedAt, &t.RepliedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &t, nil
}

// ListOpen retrieves unanswered tickets, oldest first.
func (r *SupportRepository) ListOpen(ctx context.Context) ([]*model.SupportTicket, error) {
	const query = `
		SELECT id, account_id, message, reply, answered, created_at, replied_at
		FROM support_tickets
		WHERE NOT answered
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.SupportTicket
	for rows.Next() {
		var t model.SupportTicket
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Message, &t.Reply, &t.Answered, &t.CreatedAt, &t.RepliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

// Reply answers a ticket. A ticket is mutated at most once: replying again
// fails with ErrTicketNotFound since the answered filter no longer matches.
func (r *SupportRepository) Reply(ctx context.Context, ticketID int64, reply string) (*model.SupportTicket, error) {
	const query = `
		UPDATE support_tickets
		SET reply = $2, answered = TRUE, replied_at = NOW()
		WHERE id = $1 AND NOT answered
		RETURNING id, account_id, message, reply, answered, created_at, replied_at
	`

	var t model.SupportTicket
	err := r.pool.QueryRow(ctx, query, ticketID, reply).Scan(
		&t.ID, &t.AccountID, &t.Message, &t.Reply, &t.Answered, &t.CreatedAt, &t.RepliedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to reply to ticket: %w", err)
	}
	return &t, nil
}
