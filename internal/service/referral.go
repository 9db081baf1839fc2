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

// ErrInvalidReferralCode is returned when a referral code matches no account.
var ErrInvalidReferralCode = errors.New("invalid referral code")

// Notifier delivers a best-effort message to an account's conversation.
// Failures never roll anything back.
type Notifier interface {
	Notify(recipientID int64, message string) error
}

// ReferralService validates referral codes at registration time and pays
// the referral reward. The reward is issued before the notification is
// attempted and stands regardless of the notification outcome.
type ReferralService struct {
	accountRepo *repository.AccountRepository
	ledgerRepo  *repository.LedgerRepository
	locks       *lock.AccountLock
	economy     config.EconomyConfig
}

// NewReferralService creates a new ReferralService instance.
func NewReferralService(
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	locks *lock.AccountLock,
	economy config.EconomyConfig,
) *ReferralService {
	return &ReferralService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		locks:       locks,
		economy:     economy,
	}
}

// ValidateCode resolves a referral code to the referring account.
func (s *ReferralService) ValidateCode(ctx context.Context, code string) (*model.Account, error) {
	referrer, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to validate referral code: %w", err)
	}
	return referrer, nil
}

// Register completes the registration wizard: the account is created, and if
// a referral code was supplied the referrer is rewarded and notified.
// The code must have been validated before calling; an unknown code here is
// skipped silently rather than failing the registration.
func (s *ReferralService) Register(ctx context.Context, telegramID int64, fullName, stage, country string, referralCode *string, notifier Notifier) (*model.Account, error) {
	account, err := s.accountRepo.Create(ctx, telegramID, fullName, stage, country, referralCode, s.economy.WelcomeBonus)
	if err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	if referralCode != nil {
		s.rewardReferrer(ctx, *referralCode, account, notifier)
	}

	return account, nil
}

// rewardReferrer pays the referral reward and attempts a best-effort
// notification. A missing referrer is logged and skipped; a notification
// failure never rolls the reward back.
func (s *ReferralService) rewardReferrer(ctx context.Context, code string, newAccount *model.Account, notifier Notifier) {
	referrer, err := s.accountRepo.GetByCode(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("Referral code did not resolve, reward skipped")
		return
	}

	err = s.locks.WithLock(referrer.TelegramID, func() error {
		if _, err := s.accountRepo.CreditReferral(ctx, referrer.TelegramID, s.economy.ReferralReward); err != nil {
			return err
		}
		if _, err := s.ledgerRepo.Record(ctx, newAccount.TelegramID, referrer.TelegramID, s.economy.ReferralReward, model.KindReferralBonus); err != nil {
			log.Error().Err(err).Int64("referrer_id", referrer.TelegramID).Msg("Failed to record referral provenance")
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int64("referrer_id", referrer.TelegramID).Msg("Failed to credit referral reward")
		return
	}

	if notifier != nil {
		msg := fmt.Sprintf(
			"🎉 إحالة ناجحة!\n\nانضم %s عبر رمزك وحصلت على %d نقطة مكافأة.",
			newAccount.FullName, s.economy.ReferralReward,
		)
		if err := notifier.Notify(referrer.TelegramID, msg); err != nil {
			log.Warn().Err(err).Int64("referrer_id", referrer.TelegramID).Msg("Referral notification failed, reward stands")
		}
	}
}

// Reward returns the configured referral reward in points.
func (s *ReferralService) Reward() int64 {
	return s.economy.ReferralReward
}
