package app

import (
	"context"
	"fmt"
	"log/slog"

	"vocab-quiz/internal/domain"
)

// QuestionRepository loads the question bank (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionService serves the question bank to players.
type QuestionService struct {
	questions QuestionRepository
	logger    *slog.Logger
}

func NewQuestionService(questions QuestionRepository, logger *slog.Logger) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{questions: questions, logger: logger}
}

// Questions returns the valid questions of the bank in order.
// Malformed records are skipped; an empty result is a content error.
func (s *QuestionService) Questions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.GetQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}

	valid := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			s.logger.Warn("skipping invalid question", "id", q.ID, "error", err)
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, domain.ErrContent
	}
	return valid, nil
}
