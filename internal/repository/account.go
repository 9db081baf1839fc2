// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"study-assistant-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

const accountColumns = `telegram_id, full_name, stage, country, activation_code,
		points, currency, premium, gift_premium, manager,
		referral_count, referred_by, question_count, responses_since_ad,
		created_at, last_active_at`

// AccountRepository handles account data persistence.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.TelegramID,
		&a.FullName,
		&a.Stage,
		&a.Country,
		&a.ActivationCode,
		&a.Points,
		&a.Currency,
		&a.Premium,
		&a.GiftPremium,
		&a.Manager,
		&a.ReferralCount,
		&a.ReferredBy,
		&a.QuestionCount,
		&a.ResponsesSinceAd,
		&a.CreatedAt,
		&a.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// NewActivationCode generates a short human-shareable activation code.
// Codes are uppercase and derived from a v4 UUID.
func NewActivationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

// Create creates a new account at the end of the registration wizard.
// The activation code is assigned once and never changes; the welcome
// bonus is the opening points balance.
func (r *AccountRepository) Create(ctx context.Context, telegramID int64, fullName, stage, country string, referredBy *string, welcomeBonus int64) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (telegram_id, full_name, stage, country, activation_code, referred_by, points, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query,
		telegramID, fullName, stage, country, NewActivationCode(), referredBy, welcomeBonus))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// GetByID retrieves an account by its Telegram ID.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, telegramID int64) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE telegram_id = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetByCode retrieves an account by its activation code.
// Codes are matched case-normalized (uppercase).
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE activation_code = $1`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account by code: %w", err)
	}
	return account, nil
}

// Exists checks if an account with the given Telegram ID exists.
func (r *AccountRepository) Exists(ctx context.Context, telegramID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE telegram_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, telegramID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// AddPoints adjusts the points balance by delta, which may be negative.
// The update is conditional on the balance staying non-negative; a debit
// that would go below zero fails with ErrInsufficientBalance.
func (r *AccountRepository) AddPoints(ctx context.Context, telegramID int64, delta int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET points = points + $2, last_active_at = NOW()
		WHERE telegram_id = $1 AND points + $2 >= 0
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, telegramID, delta))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, r.classifyBalanceFailure(ctx, telegramID)
		}
		return nil, fmt.Errorf("failed to update points: %w", err)
	}
	return account, nil
}

// AddCurrency adjusts the currency balance by delta, with the same
// non-negative guard as AddPoints.
func (r *AccountRepository) AddCurrency(ctx context.Context, telegramID int64, delta int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET currency = currency + $2, last_active_at = NOW()
		WHERE telegram_id = $1 AND currency + $2 >= 0
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, telegramID, delta))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, r.classifyBalanceFailure(ctx, telegramID)
		}
		return nil, fmt.Errorf("failed to update currency: %w", err)
	}
	return account, nil
}

// classifyBalanceFailure distinguishes a missing account from a guarded
// balance update that matched no row.
func (r *AccountRepository) classifyBalanceFailure(ctx context.Context, telegramID int64) error {
	exists, err := r.Exists(ctx, telegramID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return ErrInsufficientBalance
}

// RecordAnswer bumps the question counters after an answered question.
// Both the lifetime count and the ad checkpoint counter advance.
func (r *AccountRepository) RecordAnswer(ctx context.Context, telegramID int64) error {
	const query = `
		UPDATE accounts
		SET question_count = question_count + 1,
		    responses_since_ad = responses_since_ad + 1,
		    last_active_at = NOW()
		WHERE telegram_id = $1
	`

	result, err := r.pool.Exec(ctx, query, telegramID)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SettleAdRitual resets the responses-since-checkpoint counter and credits
// the viewing bonus in one statement, so a storage failure cannot commit the
// reset without the bonus.
func (r *AccountRepository) SettleAdRitual(ctx context.Context, telegramID, bonus int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET responses_since_ad = 0, points = points + $2, last_active_at = NOW()
		WHERE telegram_id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, telegramID, bonus))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to settle ad ritual: %w", err)
	}
	return account, nil
}

// CreditReferral pays the referral reward to the referrer and bumps the
// successful-referral counter in a single statement.
func (r *AccountRepository) CreditReferral(ctx context.Context, referrerID int64, reward int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET points = points + $2, referral_count = referral_count + 1
		WHERE telegram_id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, referrerID, reward))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to credit referral: %w", err)
	}
	return account, nil
}

// SetPremiumByCode sets or clears the premium flag for the account with the
// given activation code. Activation resets the ad checkpoint counter; the
// gift flag is only ever set on the gift path and cleared on deactivation.
func (r *AccountRepository) SetPremiumByCode(ctx context.Context, code string, premium, gift bool) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET premium = $2,
		    gift_premium = $3,
		    responses_since_ad = CASE WHEN $2 THEN 0 ELSE responses_since_ad END
		WHERE activation_code = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query,
		strings.ToUpper(strings.TrimSpace(code)), premium, gift))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set premium: %w", err)
	}
	return account, nil
}

// SetManagerByCode promotes the account with the given activation code.
func (r *AccountRepository) SetManagerByCode(ctx context.Context, code string) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET manager = TRUE
		WHERE activation_code = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.pool.QueryRow(ctx, query, strings.ToUpper(strings.TrimSpace(code))))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to set manager: %w", err)
	}
	return account, nil
}

// ListAll retrieves every account ordered by registration time.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at`
	return r.queryAccounts(ctx, query)
}

// ListByPremium retrieves accounts filtered by premium status.
func (r *AccountRepository) ListByPremium(ctx context.Context, premium bool) ([]*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE premium = $1 ORDER BY created_at`
	return r.queryAccounts(ctx, query, premium)
}

// ListIDs retrieves every account's Telegram ID, for broadcast iteration.
func (r *AccountRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT telegram_id FROM accounts ORDER BY telegram_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list account ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account ids: %w", err)
	}
	return ids, nil
}

// TopByPoints retrieves the top N accounts by points balance.
func (r *AccountRepository) TopByPoints(ctx context.Context, limit int) ([]*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY points DESC LIMIT $1`
	return r.queryAccounts(ctx, query, limit)
}

// Totals aggregates account and balance counts across the whole ledger.
func (r *AccountRepository) Totals(ctx context.Context) (*model.AccountTotals, error) {
	const query = `
		SELECT COUNT(*),
		       COALESCE(SUM(points), 0),
		       COALESCE(SUM(currency), 0),
		       COUNT(*) FILTER (WHERE premium)
		FROM accounts
	`

	var t model.AccountTotals
	err := r.pool.QueryRow(ctx, query).Scan(&t.Accounts, &t.Points, &t.Currency, &t.Premium)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate totals: %w", err)
	}
	return &t, nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]*model.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}
