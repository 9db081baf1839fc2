package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"study-assistant-bot/internal/model"
)

// QuestionRepository handles the append-only question log.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository instance.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Log appends a question record. Every question attempt is logged, answered
// or ad-blocked alike; records are never mutated or deleted.
func (r *QuestionRepository) Log(ctx context.Context, accountID int64, text, category string) (*model.Question, error) {
	const query = `
		INSERT INTO questions (account_id, text, category, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, account_id, text, category, created_at
	`

	var q model.Question
	err := r.pool.QueryRow(ctx, query, accountID, text, category).Scan(
		&q.ID, &q.AccountID, &q.Text, &q.Category, &q.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to log question: %w", err)
	}
	return &q, nil
}

// CountByAccount returns how many questions an account has logged.
func (r *QuestionRepository) CountByAccount(ctx context.Context, accountID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM questions WHERE account_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

// RecentByAccount retrieves the most recent questions for an account.
func (r *QuestionRepository) RecentByAccount(ctx context.Context, accountID int64, limit int) ([]*model.Question, error) {
	const query = `
		SELECT id, account_id, text, category, created_at
		FROM questions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.AccountID, &q.Text, &q.Category, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}
