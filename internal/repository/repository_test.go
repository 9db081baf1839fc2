// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"study-assistant-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
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
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS questions (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			category VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

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
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			sender_id BIGINT NOT NULL,
			recipient_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			kind VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS support_tickets (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(telegram_id) ON DELETE CASCADE,
			message TEXT NOT NULL,
			reply TEXT,
			answered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			replied_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS settings (
			key VARCHAR(100) PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	return err
}

const (
	testStage   = "الجامعة/التعليم العالي"
	testCountry = "المملكة العربية السعودية"
)

// createTestAccount registers an account with no referrer and no welcome bonus.
func createTestAccount(t *testing.T, repo *AccountRepository, id int64, name string) *model.Account {
	t.Helper()
	account, err := repo.Create(context.Background(), id, name, testStage, testCountry, nil, 0)
	require.NoError(t, err)
	return account
}

// ============================================================================
// AccountRepository Tests
// ============================================================================

func TestAccountRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	account, err := repo.Create(ctx, 12345, "محمد عبدالله الفهد", testStage, testCountry, nil, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), account.TelegramID)
	assert.Equal(t, "محمد عبدالله الفهد", account.FullName)
	assert.Equal(t, testStage, account.Stage)
	assert.Equal(t, testCountry, account.Country)
	assert.Len(t, account.ActivationCode, 8)
	assert.Equal(t, int64(50), account.Points) // Welcome bonus is the opening balance
	assert.Equal(t, int64(0), account.Currency)
	assert.False(t, account.Premium)
	assert.False(t, account.Manager)
	assert.Nil(t, account.ReferredBy)
	assert.False(t, account.CreatedAt.IsZero())
}

func TestAccountRepository_CreateWithReferrer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	referrer := createTestAccount(t, repo, 1, "أحمد سالم العمري")

	account, err := repo.Create(ctx, 2, "خالد فهد المطيري", testStage, testCountry, &referrer.ActivationCode, 50)
	require.NoError(t, err)
	require.NotNil(t, account.ReferredBy)
	assert.Equal(t, referrer.ActivationCode, *account.ReferredBy)
}

func TestAccountRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	created := createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	account, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, created.ActivationCode, account.ActivationCode)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_GetByCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	created := createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	// Codes match case-normalized with surrounding whitespace ignored
	account, err := repo.GetByCode(ctx, "  "+created.ActivationCode+"  ")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), account.TelegramID)

	_, err = repo.GetByCode(ctx, "NOPE1234")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_AddPoints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	account, err := repo.AddPoints(ctx, 12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Points)

	account, err = repo.AddPoints(ctx, 12345, -30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), account.Points)

	// A debit below zero fails and leaves the balance untouched
	_, err = repo.AddPoints(ctx, 12345, -1000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	account, err = repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(70), account.Points)

	_, err = repo.AddPoints(ctx, 99999, 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_AddCurrency(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	account, err := repo.AddCurrency(ctx, 12345, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(40), account.Currency)

	_, err = repo.AddCurrency(ctx, 12345, -50)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = repo.AddCurrency(ctx, 99999, 10)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_RecordAnswer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	require.NoError(t, repo.RecordAnswer(ctx, 12345))
	require.NoError(t, repo.RecordAnswer(ctx, 12345))

	account, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(2), account.QuestionCount)
	assert.Equal(t, int64(2), account.ResponsesSinceAd)

	assert.ErrorIs(t, repo.RecordAnswer(ctx, 99999), ErrAccountNotFound)
}

func TestAccountRepository_SettleAdRitual(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")
	require.NoError(t, repo.RecordAnswer(ctx, 12345))
	require.NoError(t, repo.RecordAnswer(ctx, 12345))

	// Counter reset and bonus credit land together, in one statement
	account, err := repo.SettleAdRitual(ctx, 12345, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.ResponsesSinceAd)
	assert.Equal(t, int64(5), account.Points)
	// Lifetime count is untouched by the checkpoint reset
	assert.Equal(t, int64(2), account.QuestionCount)

	_, err = repo.SettleAdRitual(ctx, 99999, 5)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_CreditReferral(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	account, err := repo.CreditReferral(ctx, 12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Points)
	assert.Equal(t, int64(1), account.ReferralCount)

	account, err = repo.CreditReferral(ctx, 12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), account.Points)
	assert.Equal(t, int64(2), account.ReferralCount)

	_, err = repo.CreditReferral(ctx, 99999, 100)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_SetPremiumByCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	created := createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")
	require.NoError(t, repo.RecordAnswer(ctx, 12345))

	// Activation sets the flag and resets the ad checkpoint counter
	account, err := repo.SetPremiumByCode(ctx, created.ActivationCode, true, false)
	require.NoError(t, err)
	assert.True(t, account.Premium)
	assert.False(t, account.GiftPremium)
	assert.Equal(t, int64(0), account.ResponsesSinceAd)

	// Deactivation clears both flags and leaves the counter alone
	account, err = repo.SetPremiumByCode(ctx, created.ActivationCode, false, false)
	require.NoError(t, err)
	assert.False(t, account.Premium)
	assert.False(t, account.GiftPremium)

	// Gift activation marks the gift flag
	account, err = repo.SetPremiumByCode(ctx, created.ActivationCode, true, true)
	require.NoError(t, err)
	assert.True(t, account.Premium)
	assert.True(t, account.GiftPremium)

	_, err = repo.SetPremiumByCode(ctx, "NOPE1234", true, false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_SetManagerByCode(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	created := createTestAccount(t, repo, 12345, "محمد عبدالله الفهد")

	account, err := repo.SetManagerByCode(ctx, created.ActivationCode)
	require.NoError(t, err)
	assert.True(t, account.Manager)

	_, err = repo.SetManagerByCode(ctx, "NOPE1234")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountRepository_Rosters(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	a := createTestAccount(t, repo, 1, "أحمد سالم العمري")
	createTestAccount(t, repo, 2, "خالد فهد المطيري")
	createTestAccount(t, repo, 3, "سارة علي الزهراني")

	_, err := repo.SetPremiumByCode(ctx, a.ActivationCode, true, false)
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	premium, err := repo.ListByPremium(ctx, true)
	require.NoError(t, err)
	require.Len(t, premium, 1)
	assert.Equal(t, int64(1), premium[0].TelegramID)

	free, err := repo.ListByPremium(ctx, false)
	require.NoError(t, err)
	assert.Len(t, free, 2)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestAccountRepository_TopByPointsAndTotals(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAccountRepository(pool)
	ctx := context.Background()

	createTestAccount(t, repo, 1, "أحمد سالم العمري")
	createTestAccount(t, repo, 2, "خالد فهد المطيري")
	createTestAccount(t, repo, 3, "سارة علي الزهراني")

	_, _ = repo.AddPoints(ctx, 1, 300)
	_, _ = repo.AddPoints(ctx, 2, 100)
	_, _ = repo.AddPoints(ctx, 3, 500)
	_, _ = repo.AddCurrency(ctx, 1, 7)

	top, err := repo.TopByPoints(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(3), top[0].TelegramID)
	assert.Equal(t, int64(1), top[1].TelegramID)

	totals, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.Accounts)
	assert.Equal(t, int64(900), totals.Points)
	assert.Equal(t, int64(7), totals.Currency)
	assert.Equal(t, int64(0), totals.Premium)
}

// ============================================================================
// LedgerRepository Tests
// ============================================================================

func TestLedgerRepository_TransferCurrency(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	createTestAccount(t, accountRepo, 2, "خالد فهد المطيري")
	_, err := accountRepo.AddCurrency(ctx, 1, 100)
	require.NoError(t, err)

	require.NoError(t, ledgerRepo.TransferCurrency(ctx, 1, 2, 40))

	sender, _ := accountRepo.GetByID(ctx, 1)
	recipient, _ := accountRepo.GetByID(ctx, 2)
	assert.Equal(t, int64(60), sender.Currency)
	assert.Equal(t, int64(40), recipient.Currency)

	// Provenance row committed with the balance moves
	transfers, err := ledgerRepo.ListByAccount(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, model.KindTransfer, transfers[0].Kind)
	assert.Equal(t, int64(40), transfers[0].Amount)
}

func TestLedgerRepository_TransferCurrency_Insufficient(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	createTestAccount(t, accountRepo, 2, "خالد فهد المطيري")
	_, err := accountRepo.AddCurrency(ctx, 1, 10)
	require.NoError(t, err)

	err = ledgerRepo.TransferCurrency(ctx, 1, 2, 40)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Both balances untouched
	sender, _ := accountRepo.GetByID(ctx, 1)
	recipient, _ := accountRepo.GetByID(ctx, 2)
	assert.Equal(t, int64(10), sender.Currency)
	assert.Equal(t, int64(0), recipient.Currency)
}

func TestLedgerRepository_TransferCurrency_MissingRecipient(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	_, err := accountRepo.AddCurrency(ctx, 1, 100)
	require.NoError(t, err)

	err = ledgerRepo.TransferCurrency(ctx, 1, 99999, 40)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// Debit rolled back with the failed credit
	sender, _ := accountRepo.GetByID(ctx, 1)
	assert.Equal(t, int64(100), sender.Currency)
}

func TestLedgerRepository_ConvertPoints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	_, err := accountRepo.AddPoints(ctx, 1, 250)
	require.NoError(t, err)

	// 250 points at rate 100 convert to 2 currency, floor division
	currency, err := ledgerRepo.ConvertPoints(ctx, 1, 250, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), currency)

	account, _ := accountRepo.GetByID(ctx, 1)
	assert.Equal(t, int64(0), account.Points)
	assert.Equal(t, int64(2), account.Currency)

	_, err = ledgerRepo.ConvertPoints(ctx, 1, 100, 100)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestLedgerRepository_PurchasePremium(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	ledgerRepo := NewLedgerRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	_, err := accountRepo.AddCurrency(ctx, 1, 25)
	require.NoError(t, err)
	require.NoError(t, accountRepo.RecordAnswer(ctx, 1))

	account, err := ledgerRepo.PurchasePremium(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, account.Premium)
	assert.Equal(t, int64(15), account.Currency)
	assert.Equal(t, int64(0), account.ResponsesSinceAd)

	// Cost above balance fails without charging
	createTestAccount(t, accountRepo, 2, "خالد فهد المطيري")
	_, err = ledgerRepo.PurchasePremium(ctx, 2, 10)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	poor, _ := accountRepo.GetByID(ctx, 2)
	assert.False(t, poor.Premium)
	assert.Equal(t, int64(0), poor.Currency)
}

// ============================================================================
// TaskRepository Tests
// ============================================================================

func TestTaskRepository_CreateAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	taskRepo := NewTaskRepository(pool)
	ctx := context.Background()

	task, err := taskRepo.Create(ctx, "https://example.com/join", "انضم للقناة", 20, model.TaskCategoryGeneral)
	require.NoError(t, err)
	assert.True(t, task.Active)
	assert.Equal(t, int64(20), task.Points)

	tasks, err := taskRepo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, taskRepo.Deactivate(ctx, task.ID))

	tasks, err = taskRepo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	assert.ErrorIs(t, taskRepo.Deactivate(ctx, 99999), ErrTaskNotFound)
}

func TestTaskRepository_Complete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	taskRepo := NewTaskRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	task, err := taskRepo.Create(ctx, "https://example.com/join", "انضم للقناة", 20, model.TaskCategoryGeneral)
	require.NoError(t, err)

	reward, err := taskRepo.Complete(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), reward)

	account, _ := accountRepo.GetByID(ctx, 1)
	assert.Equal(t, int64(20), account.Points)

	// Repeating the completion credits nothing
	_, err = taskRepo.Complete(ctx, 1, task.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	account, _ = accountRepo.GetByID(ctx, 1)
	assert.Equal(t, int64(20), account.Points)

	done, err := taskRepo.IsCompleted(ctx, 1, task.ID)
	require.NoError(t, err)
	assert.True(t, done)

	// A completed task disappears from the available list
	available, err := taskRepo.ListAvailable(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestTaskRepository_CompleteInactive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	taskRepo := NewTaskRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")
	task, err := taskRepo.Create(ctx, "https://example.com/join", "انضم للقناة", 20, model.TaskCategoryGeneral)
	require.NoError(t, err)
	require.NoError(t, taskRepo.Deactivate(ctx, task.ID))

	_, err = taskRepo.Complete(ctx, 1, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// ============================================================================
// QuestionRepository Tests
// ============================================================================

func TestQuestionRepository_LogAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	questionRepo := NewQuestionRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")

	_, err := questionRepo.Log(ctx, 1, "ما هي عاصمة فرنسا؟", "عام")
	require.NoError(t, err)
	q, err := questionRepo.Log(ctx, 1, "اشرح نظرية فيثاغورس", "عام")
	require.NoError(t, err)
	assert.Equal(t, "اشرح نظرية فيثاغورس", q.Text)

	count, err := questionRepo.CountByAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	recent, err := questionRepo.RecentByAccount(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "اشرح نظرية فيثاغورس", recent[0].Text)
}

func TestQuestionRepository_BlockedAttempt(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	questionRepo := NewQuestionRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")

	// An ad-blocked attempt still lands in the audit log
	q, err := questionRepo.Log(ctx, 1, "ما هي عاصمة فرنسا؟", model.QuestionCategoryBlocked)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionCategoryBlocked, q.Category)

	recent, err := questionRepo.RecentByAccount(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.QuestionCategoryBlocked, recent[0].Category)

	// Blocked attempts advance neither the lifetime nor the checkpoint counter
	account, err := accountRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.QuestionCount)
	assert.Equal(t, int64(0), account.ResponsesSinceAd)
}

// ============================================================================
// SupportRepository Tests
// ============================================================================

func TestSupportRepository_OpenAndReply(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	accountRepo := NewAccountRepository(pool)
	supportRepo := NewSupportRepository(pool)
	ctx := context.Background()

	createTestAccount(t, accountRepo, 1, "أحمد سالم العمري")

	ticket, err := supportRepo.Create(ctx, 1, "لدي مشكلة في التحويل")
	require.NoError(t, err)
	assert.False(t, ticket.Answered)
	assert.Nil(t, ticket.Reply)

	open, err := supportRepo.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)

	answered, err := supportRepo.Reply(ctx, ticket.ID, "تم حل المشكلة")
	require.NoError(t, err)
	assert.True(t, answered.Answered)
	require.NotNil(t, answered.Reply)
	assert.Equal(t, "تم حل المشكلة", *answered.Reply)
	assert.NotNil(t, answered.RepliedAt)

	// A ticket is answered at most once
	_, err = supportRepo.Reply(ctx, ticket.ID, "رد ثاني")
	assert.ErrorIs(t, err, ErrTicketNotFound)

	open, err = supportRepo.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

// ============================================================================
// SettingsRepository Tests
// ============================================================================

func TestSettingsRepository_GetSetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingsRepository(pool)
	ctx := context.Background()

	// Absent key returns the fallback
	value, err := repo.Get(ctx, "premium_price", "10 ريال سعودي")
	require.NoError(t, err)
	assert.Equal(t, "10 ريال سعودي", value)

	require.NoError(t, repo.Set(ctx, "premium_price", "15 ريال سعودي"))
	value, err = repo.Get(ctx, "premium_price", "10 ريال سعودي")
	require.NoError(t, err)
	assert.Equal(t, "15 ريال سعودي", value)

	// Upsert overwrites
	require.NoError(t, repo.Set(ctx, "premium_price", "20 ريال سعودي"))
	value, err = repo.Get(ctx, "premium_price", "")
	require.NoError(t, err)
	assert.Equal(t, "20 ريال سعودي", value)

	require.NoError(t, repo.Set(ctx, "show_email", "false"))
	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"premium_price": "20 ريال سعودي",
		"show_email":    "false",
	}, all)
}
