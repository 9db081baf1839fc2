// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/pkg/lock"
	"study-assistant-bot/internal/repository"
)

// Ledger-related errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientMinimum = errors.New("amount below conversion minimum")
	ErrInvalidAmount       = errors.New("invalid amount: must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrNotPremium          = errors.New("account is not premium")
)

// LedgerService is the ledger engine: every balance-mutating operation goes
// through here, holds the owning account's lock for its duration, and leaves
// a provenance record. Balances can never go negative.
type LedgerService struct {
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	locks       *lock.AccountLock
	economy     config.EconomyConfig
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	locks *lock.AccountLock,
	economy config.EconomyConfig,
) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		locks:       locks,
		economy:     economy,
	}
}

// CreditPoints credits points to an account and records provenance.
func (s *LedgerService) CreditPoints(ctx context.Context, accountID, amount int64, kind string) (*model.Account, error) {
	var account *model.Account
	err := s.locks.WithLock(accountID, func() error {
		var err error
		account, err = s.accountRepo.AddPoints(ctx, accountID, amount)
		if err != nil {
			return s.mapRepoErr(err)
		}
		if _, err := s.ledgerRepo.Record(ctx, accountID, accountID, amount, kind); err != nil {
			// Balance already moved; the missing provenance row is logged,
			// not surfaced.
			log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to record provenance")
		}
		return nil
	})
	return account, err
}

// ConvertPoints converts points into currency at the configured rate with
// floor division. The amount must meet the configured minimum and the
// account must hold at least that many points.
func (s *LedgerService) ConvertPoints(ctx context.Context, accountID, points int64) (int64, error) {
	if points < s.economy.ConvertMinimum {
		return 0, ErrInsufficientMinimum
	}

	var currency int64
	err := s.locks.WithLock(accountID, func() error {
		var err error
		currency, err = s.ledgerRepo.ConvertPoints(ctx, accountID, points, s.economy.ConvertRate)
		return s.mapRepoErr(err)
	})
	if err != nil {
		return 0, err
	}
	return currency, nil
}

// TransferCurrency moves currency from the sender to the account owning the
// recipient activation code. Both balance updates and the provenance record
// commit as one unit; both account locks are held, acquired in ascending ID
// order to avoid deadlock between concurrent transfers.
func (s *LedgerService) TransferCurrency(ctx context.Context, senderID int64, recipientCode string, amount int64) (*model.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	recipient, err := s.accountRepo.GetByCode(ctx, recipientCode)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	if recipient.TelegramID == senderID {
		return nil, ErrSelfTransfer
	}

	err = s.locks.WithPairLock(senderID, recipient.TelegramID, func() error {
		return s.mapRepoErr(s.ledgerRepo.TransferCurrency(ctx, senderID, recipient.TelegramID, amount))
	})
	if err != nil {
		return nil, err
	}
	return recipient, nil
}

// PurchasePremium buys the premium entitlement for the configured cost.
// Re-purchasing while already premium is a no-op success: the account is
// returned unchanged and nothing is charged.
func (s *LedgerService) PurchasePremium(ctx context.Context, accountID int64) (*model.Account, error) {
	var account *model.Account
	err := s.locks.WithLock(accountID, func() error {
		current, err := s.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return s.mapRepoErr(err)
		}
		if current.Premium {
			account = current
			return nil
		}
		account, err = s.ledgerRepo.PurchasePremium(ctx, accountID, s.economy.PremiumCost)
		return s.mapRepoErr(err)
	})
	return account, err
}

// GrantPoints issues an admin point grant to the account owning the target
// activation code. Negative grants are allowed but cannot drive the balance
// below zero.
func (s *LedgerService) GrantPoints(ctx context.Context, targetCode string, amount int64) (*model.Account, error) {
	return s.grant(ctx, targetCode, amount, func(ctx context.Context, id, amt int64) (*model.Account, error) {
		return s.accountRepo.AddPoints(ctx, id, amt)
	})
}

// GrantCurrency issues an admin currency grant, same rules as GrantPoints.
func (s *LedgerService) GrantCurrency(ctx context.Context, targetCode string, amount int64) (*model.Account, error) {
	return s.grant(ctx, targetCode, amount, func(ctx context.Context, id, amt int64) (*model.Account, error) {
		return s.accountRepo.AddCurrency(ctx, id, amt)
	})
}

func (s *LedgerService) grant(ctx context.Context, targetCode string, amount int64, credit func(context.Context, int64, int64) (*model.Account, error)) (*model.Account, error) {
	target, err := s.accountRepo.GetByCode(ctx, targetCode)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to resolve grant target: %w", err)
	}

	var account *model.Account
	err = s.locks.WithLock(target.TelegramID, func() error {
		account, err = credit(ctx, target.TelegramID, amount)
		if err != nil {
			return s.mapRepoErr(err)
		}
		if _, err := s.ledgerRepo.Record(ctx, target.TelegramID, target.TelegramID, amount, model.KindAdminGrant); err != nil {
			log.Error().Err(err).Int64("account_id", target.TelegramID).Msg("Failed to record grant provenance")
		}
		return nil
	})
	return account, err
}

// ActivatePremium force-activates premium for the target code. The ad
// checkpoint counter resets with the grant.
func (s *LedgerService) ActivatePremium(ctx context.Context, targetCode string) (*model.Account, error) {
	return s.setPremium(ctx, targetCode, true, false)
}

// GiftPremium activates premium as a gift, marking the gift flag.
func (s *LedgerService) GiftPremium(ctx context.Context, targetCode string) (*model.Account, error) {
	return s.setPremium(ctx, targetCode, true, true)
}

// DeactivatePremium revokes premium. The target must currently be premium.
func (s *LedgerService) DeactivatePremium(ctx context.Context, targetCode string) (*model.Account, error) {
	target, err := s.accountRepo.GetByCode(ctx, targetCode)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}
	if !target.Premium {
		return nil, ErrNotPremium
	}
	return s.setPremium(ctx, targetCode, false, false)
}

func (s *LedgerService) setPremium(ctx context.Context, targetCode string, premium, gift bool) (*model.Account, error) {
	target, err := s.accountRepo.GetByCode(ctx, targetCode)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to resolve target: %w", err)
	}

	var account *model.Account
	err = s.locks.WithLock(target.TelegramID, func() error {
		account, err = s.accountRepo.SetPremiumByCode(ctx, targetCode, premium, gift)
		return s.mapRepoErr(err)
	})
	return account, err
}

// GetAccount retrieves an account by Telegram ID.
func (s *LedgerService) GetAccount(ctx context.Context, accountID int64) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}
	return account, nil
}

// History retrieves the account's recent ledger movements.
func (s *LedgerService) History(ctx context.Context, accountID int64, limit int) ([]*model.Transfer, error) {
	return s.ledgerRepo.ListByAccount(ctx, accountID, limit)
}

func (s *LedgerService) mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientBalance):
		return ErrInsufficientBalance
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	default:
		return err
	}
}
