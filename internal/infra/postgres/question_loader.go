package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz/internal/domain"
)

// QuestionLoader loads a question bank stored as a JSONB array.
type QuestionLoader struct {
	pool   *pgxpool.Pool
	bankID string
}

func NewQuestionLoader(pool *pgxpool.Pool, bankID string) *QuestionLoader {
	return &QuestionLoader{pool: pool, bankID: bankID}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE id=$1`, l.bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bank %q: %w", l.bankID, domain.ErrQuestionBankNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return questions, nil
}

// SaveQuestions replaces the bank contents.
func (l *QuestionLoader) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO question_banks (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		l.bankID, string(data))
	if err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	return nil
}
