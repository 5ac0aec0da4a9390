package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vocab-quiz/internal/domain"
)

// ResultRepository stores exam results in the exam_results table.
type ResultRepository struct {
	pool *pgxpool.Pool
}

func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

func (r *ResultRepository) Insert(ctx context.Context, res domain.ExamResult) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_results (id, name, phone, email, score, duration, feedback, created_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, res.Name, res.Phone, res.Email, res.Score, res.Duration, res.Feedback, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}
	return nil
}

func (r *ResultRepository) FindRecent(ctx context.Context, phone string, score float64, duration int, since time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM exam_results
		   WHERE phone=$1 AND score=$2 AND duration=$3 AND created_at >= $4
		 )`,
		phone, score, duration, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("find recent result: %w", err)
	}
	return exists, nil
}

func (r *ResultRepository) LatestByEmail(ctx context.Context, email string) (domain.ExamResult, error) {
	var res domain.ExamResult
	err := r.pool.QueryRow(ctx,
		`SELECT id::text, name, phone, email, score, duration, feedback, created_at
		 FROM exam_results
		 WHERE lower(email)=lower($1)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email).Scan(&res.ID, &res.Name, &res.Phone, &res.Email, &res.Score, &res.Duration, &res.Feedback, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ExamResult{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.ExamResult{}, fmt.Errorf("latest result by email: %w", err)
	}
	return res, nil
}

func (r *ResultRepository) UpdateFeedback(ctx context.Context, id, feedback string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE exam_results SET feedback=$2 WHERE id=$1::uuid`, id, feedback)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResultNotFound
	}
	return nil
}

func (r *ResultRepository) TopResults(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, score, duration, phone
		 FROM exam_results
		 ORDER BY score DESC, duration ASC, created_at ASC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query top results: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Score, &e.Duration, &e.Phone); err != nil {
			return nil, fmt.Errorf("scan top result: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top results: %w", err)
	}
	return entries, nil
}

// Ping reports whether the database is reachable.
func (r *ResultRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
