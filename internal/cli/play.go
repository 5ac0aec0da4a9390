package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/client"
	"vocab-quiz/internal/config"
	"vocab-quiz/internal/infra/memory"
	redisinfra "vocab-quiz/internal/infra/redis"
	"vocab-quiz/internal/infra/sqlite"
	"vocab-quiz/internal/logging"
	"vocab-quiz/internal/tui"
)

type playOptions struct {
	server string
	slot   string
	store  string
}

// NewPlayCmd runs the terminal player against a backend.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if opts.server != "" {
				cfg.Client.BaseURL = opts.server
			}
			if opts.slot != "" {
				cfg.Client.Slot = opts.slot
			}
			return runPlay(cmd, cfg, opts.store)
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "", "backend base URL (overrides config)")
	cmd.Flags().StringVar(&opts.slot, "slot", "", "session slot name (overrides config)")
	cmd.Flags().StringVar(&opts.store, "store", "sqlite", "session store: sqlite, redis or memory")
	return cmd
}

func runPlay(cmd *cobra.Command, cfg config.Config, storeKind string) error {
	logger, closeLog, err := playerLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	var store app.SessionStore
	switch storeKind {
	case "sqlite":
		sqliteStore, err := sqlite.Open(cfg.Client.SessionDB, cfg.Client.Slot)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr not configured")
		}
		rdb := newRedisClient(cfg)
		defer rdb.Close()
		store = redisinfra.NewSessionStore(rdb, cfg.Client.Slot, config.Duration(cfg.Redis.TTL, 24*time.Hour))
	case "memory":
		store = memory.NewSessionStore()
	default:
		return fmt.Errorf("unknown session store %q", storeKind)
	}

	model := tui.New(cmd.Context(), tui.Config{
		Store:         store,
		Backend:       client.New(cfg.Client.BaseURL, playerHTTPClient(cfg)),
		Logger:        logger,
		ExitLink:      cfg.Client.ExitLink,
		Tick:          config.Duration(cfg.Quiz.Tick, time.Second),
		FeedbackDelay: config.Duration(cfg.Quiz.FeedbackDelay, time.Second),
		PersistEvery:  cfg.Quiz.PersistEvery,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return err
	}
	if link := model.ExitLink(); link != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Thanks for taking part! Continue here: %s\n", link)
	}
	return nil
}

// playerHTTPClient leaves backend calls unbounded unless a timeout is configured.
func playerHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: config.Duration(cfg.Client.Timeout, 0)}
}

// playerLogger writes to the configured file; the terminal belongs to the UI.
func playerLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if cfg.Client.LogFile == "" {
		return logging.Discard(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Client.LogFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logging.New(f, cfg.Log.Level, cfg.Log.Format), func() { _ = f.Close() }, nil
}
