package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"vocab-quiz/internal/config"
	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/infra/postgres"
	"vocab-quiz/internal/logging"
)

// NewSeedCmd stores a question bank in Postgres. Without a file the built-in sample bank is used.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [questions.json]",
		Short: "Load a question bank into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errPostgresNotConfigured
			}
			logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

			questions := sampleQuestions()
			if len(args) == 1 {
				if questions, err = readQuestionFile(args[0]); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.NewQuestionLoader(pool, cfg.Quiz.BankID).SaveQuestions(ctx, questions); err != nil {
				return err
			}
			logger.Info("question bank saved", "bank", cfg.Quiz.BankID, "questions", len(questions))
			return nil
		},
	}
}

func readQuestionFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	if len(questions) == 0 {
		return nil, domain.ErrContent
	}
	return questions, nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Word: "brave", Sentence: "The brave firefighter ran into the house.", Meaning: "dũng cảm",
			Options: []string{"dũng cảm", "nhút nhát", "mệt mỏi", "vui vẻ"}},
		{ID: "2", Word: "borrow", Sentence: "Can I borrow your pencil?", Meaning: "mượn",
			Options: []string{"cho", "mượn", "mua", "bán"}},
		{ID: "3", Word: "quiet", Sentence: "Please be quiet in the library.", Meaning: "yên lặng",
			Options: []string{"ồn ào", "vội vàng", "yên lặng", "chậm chạp"}},
		{ID: "4", Word: "hungry", Sentence: "After school I am always hungry.", Meaning: "đói",
			Options: []string{"no", "khát", "buồn ngủ", "đói"}},
		{ID: "5", Word: "careful", Sentence: "Be careful when you cross the street.", Meaning: "cẩn thận",
			Options: []string{"cẩn thận", "bất cẩn", "nhanh nhẹn", "lười biếng"}},
		{ID: "6", Word: "neighbor", Sentence: "Our neighbor has a friendly dog.", Meaning: "hàng xóm",
			Options: []string{"bạn học", "hàng xóm", "giáo viên", "họ hàng"}},
		{ID: "7", Word: "forget", Sentence: "Don't forget your homework.", Meaning: "quên",
			Options: []string{"nhớ", "làm", "quên", "mang"}},
		{ID: "8", Word: "early", Sentence: "She wakes up early every morning.", Meaning: "sớm",
			Options: []string{"muộn", "sớm", "thường", "hiếm khi"}},
		{ID: "9", Word: "share", Sentence: "Children should share their toys.", Meaning: "chia sẻ",
			Options: []string{"giấu", "làm hỏng", "mua", "chia sẻ"}},
		{ID: "10", Word: "tidy", Sentence: "Keep your room tidy.", Meaning: "gọn gàng",
			Options: []string{"gọn gàng", "bừa bộn", "rộng", "tối"}},
	}
}
