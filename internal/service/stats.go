package service

import (
	"context"
	"errors"

	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/repository"
)

// StatsService exposes read-only projections over the account ledger for
// the admin control plane: rosters, aggregate totals and the leaderboard.
type StatsService struct {
	accountRepo *repository.AccountRepository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(accountRepo *repository.AccountRepository) *StatsService {
	return &StatsService{accountRepo: accountRepo}
}

// AllAccounts lists every account ordered by registration time.
func (s *StatsService) AllAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.ListAll(ctx)
}

// PremiumAccounts lists the premium accounts.
func (s *StatsService) PremiumAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.ListByPremium(ctx, true)
}

// FreeAccounts lists the non-premium accounts.
func (s *StatsService) FreeAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.ListByPremium(ctx, false)
}

// Totals aggregates account, point, currency and premium counts.
func (s *StatsService) Totals(ctx context.Context) (*model.AccountTotals, error) {
	return s.accountRepo.Totals(ctx)
}

// TopByPoints returns the top N accounts by points balance.
func (s *StatsService) TopByPoints(ctx context.Context, limit int) ([]*model.Account, error) {
	return s.accountRepo.TopByPoints(ctx, limit)
}

// AllAccountIDs lists every account's Telegram ID, for broadcast iteration.
func (s *StatsService) AllAccountIDs(ctx context.Context) ([]int64, error) {
	return s.accountRepo.ListIDs(ctx)
}

// PromoteManager grants the manager role to the account owning the
// activation code.
func (s *StatsService) PromoteManager(ctx context.Context, code string) (*model.Account, error) {
	account, err := s.accountRepo.SetManagerByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	return account, nil
}
