package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/model"
	"study-assistant-bot/internal/pkg/lock"
	"study-assistant-bot/internal/repository"
)

// ErrRitualTooSoon is returned when the ad ritual continue action fires
// before the required viewing time has elapsed.
var ErrRitualTooSoon = errors.New("ad ritual continued too soon")

// GateService decides whether a free-tier account must complete the ad
// engagement ritual before its next question is answered, and settles the
// ritual itself.
type GateService struct {
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	locks       *lock.AccountLock
	cfg         config.GateConfig
}

// NewGateService creates a new GateService instance.
func NewGateService(
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	locks *lock.AccountLock,
	cfg config.GateConfig,
) *GateService {
	return &GateService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		locks:       locks,
		cfg:         cfg,
	}
}

// ShouldBlock reports whether the account's next question must be held
// behind the ad ritual. Premium accounts are never blocked.
func (s *GateService) ShouldBlock(account *model.Account) bool {
	return !account.Premium && account.ResponsesSinceAd >= s.cfg.ResponseLimit
}

// AdLink returns the outbound advertisement link shown in the ritual.
func (s *GateService) AdLink() string {
	return s.cfg.AdLink
}

// RequiredViewing returns how long the ad page must be viewed.
func (s *GateService) RequiredViewing() time.Duration {
	return time.Duration(s.cfg.RequiredSeconds) * time.Second
}

// CompleteRitual settles the two-step ritual. startedAt is the wall-clock
// instant the ritual link was issued (kept in session scratch). If enough
// time has elapsed the checkpoint counter resets and the bonus is credited;
// otherwise the remaining wait is returned with ErrRitualTooSoon and the
// counter is left untouched so the ritual can be retried.
func (s *GateService) CompleteRitual(ctx context.Context, accountID int64, startedAt time.Time) (time.Duration, error) {
	elapsed := time.Since(startedAt)
	required := s.RequiredViewing()
	if elapsed < required {
		return required - elapsed, ErrRitualTooSoon
	}

	err := s.locks.WithLock(accountID, func() error {
		if _, err := s.accountRepo.SettleAdRitual(ctx, accountID, s.cfg.Bonus); err != nil {
			return err
		}
		if _, err := s.ledgerRepo.Record(ctx, accountID, accountID, s.cfg.Bonus, model.KindAdBonus); err != nil {
			log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to record ad bonus provenance")
		}
		return nil
	})
	return 0, err
}

// ConfirmView pays the viewing bonus for the one-step menu variant. It does
// not touch the checkpoint counter; it is not part of the blocking path.
func (s *GateService) ConfirmView(ctx context.Context, accountID int64) (*model.Account, error) {
	var account *model.Account
	err := s.locks.WithLock(accountID, func() error {
		var err error
		account, err = s.accountRepo.AddPoints(ctx, accountID, s.cfg.Bonus)
		if err != nil {
			return err
		}
		if _, err := s.ledgerRepo.Record(ctx, accountID, accountID, s.cfg.Bonus, model.KindAdBonus); err != nil {
			log.Error().Err(err).Int64("account_id", accountID).Msg("Failed to record ad bonus provenance")
		}
		return nil
	})
	return account, err
}

// Bonus returns the ritual bonus amount in points.
func (s *GateService) Bonus() int64 {
	return s.cfg.Bonus
}
