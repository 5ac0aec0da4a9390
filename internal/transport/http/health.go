package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthResult is the status of one dependency.
type HealthResult struct {
	Status string `json:"status"`
}

// HealthResponse maps dependency names to their status.
type HealthResponse map[string]HealthResult

func handleHealth(logger *slog.Logger, checks map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		results := make(HealthResponse, len(checks))
		status := http.StatusOK

		for name, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Error("health check failed", "name", name, "error", err)
				results[name] = HealthResult{Status: "error"}
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = HealthResult{Status: "ok"}
		}

		writeJSON(w, status, results)
	}
}
