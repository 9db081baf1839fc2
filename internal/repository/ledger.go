package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"study-assistant-bot/internal/model"
)

// LedgerRepository handles transfer provenance records and the ledger
// operations that must update more than one row atomically.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Record appends a provenance record for a value movement.
func (r *LedgerRepository) Record(ctx context.Context, senderID, recipientID, amount int64, kind string) (*model.Transfer, error) {
	const query = `
		INSERT INTO transfers (sender_id, recipient_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, sender_id, recipient_id, amount, kind, created_at
	`

	var t model.Transfer
	err := r.pool.QueryRow(ctx, query, senderID, recipientID, amount, kind).Scan(
		&t.ID, &t.SenderID, &t.RecipientID, &t.Amount, &t.Kind, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record transfer: %w", err)
	}
	return &t, nil
}

// TransferCurrency moves currency from sender to recipient. The debit, the
// credit and the provenance record are committed in a single database
// transaction: a failure at any step leaves both balances untouched.
func (r *LedgerRepository) TransferCurrency(ctx context.Context, senderID, recipientID, amount int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET currency = currency - $2, last_active_at = NOW()
		WHERE telegram_id = $1 AND currency >= $2
	`, senderID, amount)
	if err != nil {
		return fmt.Errorf("failed to debit sender: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	result, err = tx.Exec(ctx, `
		UPDATE accounts
		SET currency = currency + $2
		WHERE telegram_id = $1
	`, recipientID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit recipient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (sender_id, recipient_id, amount, kind, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, senderID, recipientID, amount, model.KindTransfer)
	if err != nil {
		return fmt.Errorf("failed to record transfer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

// ConvertPoints converts points into currency at the given rate (floor
// division) inside one transaction. Callers validate the minimum amount.
func (r *LedgerRepository) ConvertPoints(ctx context.Context, accountID, points, rate int64) (int64, error) {
	currency := points / rate

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin conversion: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE accounts
		SET points = points - $2, currency = currency + $3, last_active_at = NOW()
		WHERE telegram_id = $1 AND points >= $2
	`, accountID, points, currency)
	if err != nil {
		return 0, fmt.Errorf("failed to convert points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (sender_id, recipient_id, amount, kind, created_at)
		VALUES ($1, $1, $2, $3, NOW())
	`, accountID, points, model.KindConvert)
	if err != nil {
		return 0, fmt.Errorf("failed to record conversion: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit conversion: %w", err)
	}
	return currency, nil
}

// PurchasePremium charges the premium cost and sets the premium flag in one
// transaction. The ad checkpoint counter resets with the grant.
func (r *LedgerRepository) PurchasePremium(ctx context.Context, accountID, cost int64) (*model.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
		UPDATE accounts
		SET currency = currency - $2,
		    premium = TRUE,
		    responses_since_ad = 0,
		    last_active_at = NOW()
		WHERE telegram_id = $1 AND currency >= $2
		RETURNING ` + accountColumns

	account, err := scanAccount(tx.QueryRow(ctx, query, accountID, cost))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("failed to purchase premium: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transfers (sender_id, recipient_id, amount, kind, created_at)
		VALUES ($1, $1, $2, $3, NOW())
	`, accountID, cost, model.KindPremiumPurchase)
	if err != nil {
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}
	return account, nil
}

// ListByAccount retrieves the most recent transfers touching an account.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*model.Transfer, error) {
	const query = `
		SELECT id, sender_id, recipient_id, amount, kind, created_at
		FROM transfers
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.SenderID, &t.RecipientID, &t.Amount, &t.Kind, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfers: %w", err)
	}
	return transfers, nil
}
