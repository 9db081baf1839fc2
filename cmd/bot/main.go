// Package main is the entry point for the study assistant bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"study-assistant-bot/internal/ai"
	"study-assistant-bot/internal/bot"
	"study-assistant-bot/internal/config"
	"study-assistant-bot/internal/pkg/db"
	"study-assistant-bot/internal/pkg/lock"
	"study-assistant-bot/internal/repository"
	"study-assistant-bot/internal/service"
	"study-assistant-bot/internal/session"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Verify the pool is still healthy after migrations
	if err := dbPool.HealthCheck(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	questionRepo := repository.NewQuestionRepository(dbPool.Pool)
	taskRepo := repository.NewTaskRepository(dbPool.Pool)
	supportRepo := repository.NewSupportRepository(dbPool.Pool)
	settingsRepo := repository.NewSettingsRepository(dbPool.Pool)

	// Initialize account lock
	accountLock := lock.NewAccountLock()

	// Initialize services
	ledgerService := service.NewLedgerService(accountRepo, ledgerRepo, accountLock, cfg.Economy)
	gateService := service.NewGateService(accountRepo, ledgerRepo, accountLock, cfg.Gate)
	referralService := service.NewReferralService(accountRepo, ledgerRepo, accountLock, cfg.Economy)
	taskService := service.NewTaskService(taskRepo, accountRepo, accountLock)
	supportService := service.NewSupportService(supportRepo)
	statsService := service.NewStatsService(accountRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	answerService := service.NewAnswerService(accountRepo, questionRepo, ai.NewGeminiClient(cfg.AI))

	// Initialize conversation session store
	sessions := session.NewStore()

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:   cfg,
		Sessions: sessions,
		Ledger:   ledgerService,
		Gate:     gateService,
		Referral: referralService,
		Tasks:    taskService,
		Support:  supportService,
		Stats:    statsService,
		Settings: settingsService,
		Answers:  answerService,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create accounts table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			telegram_id BIGINT PRIMARY KEY,
			full_name TEXT NOT NULL,
			stage VARCHAR(50) NOT NULL,
			country VARCHAR(50) NOT NULL,
			activation_code VARCHAR(16) NOT NULL UNIQUE,
			points BIGINT NOT NULL DEFAULT 0 CHECK (points >= 0),
			currency BIGINT NOT NULL DEFAULT 0 CHECK (currency >= 0),
			premium BOOLEAN NOT NULL DEFAULT FALSE,
			gift_premium BOOLEAN NOT NULL DEFAULT FALSE,
			manager BOOLEAN NOT NULL DEFAULT FALSE,
			referral_count BIGINT NOT NULL DEFAULT 0,
			referred_by VARCHAR(16),
			question_count BIGINT NOT NULL DEFAULT 0,
			responses_since_ad BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_points ON accounts(points DESC);
		CREATE INDEX IF NOT EXISTS idx_accounts_premium ON accounts(premium);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: accounts table created")

	// Migration 2: Create questions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			category VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_questions_account_time ON questions(account_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: questions table created")

	// Migration 3: Create tasks and task_completions tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			link TEXT NOT NULL,
			description TEXT NOT NULL,
			points BIGINT NOT NULL CHECK (points > 0),
			category VARCHAR(50) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS task_completions (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			points_awarded BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (account_id, task_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: tasks tables created")

	// Migration 4: Create transfers ledger table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			sender_id BIGINT NOT NULL,
			recipient_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			kind VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transfers_sender_time ON transfers(sender_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transfers_recipient_time ON transfers(recipient_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: transfers table created")

	// Migration 5: Create support_tickets table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS support_tickets (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			message TEXT NOT NULL,
			reply TEXT,
			answered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			replied_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_support_tickets_open ON support_tickets(answered, created_at);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: support_tickets table created")

	// Migration 6: Create settings table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS settings (
			key VARCHAR(100) PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 6: settings table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
