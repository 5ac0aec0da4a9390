package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vocab-quiz/internal/domain"
)

// QuestionProvider serves the question bank.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// ResultHandler stores results and feedback and ranks the board.
type ResultHandler interface {
	Submit(ctx context.Context, submission domain.ResultSubmission) (domain.SubmitOutcome, error)
	SaveFeedback(ctx context.Context, email, feedback string) error
	Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error)
	Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error)
}

// ErrorResponse is returned for all error responses except the questions endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QuestionsResponse mirrors the upstream question feed. An empty bank is a success with no data.
type QuestionsResponse struct {
	Status string            `json:"status"`
	Data   []domain.Question `json:"data"`
}

// QuestionsErrorResponse is the failed form of the question feed.
type QuestionsErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SubmitResponse acknowledges a result. Duplicates are acknowledged too.
type SubmitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// FeedbackRequest attaches text to the latest result for an email.
type FeedbackRequest struct {
	Email    string `json:"email"`
	Feedback string `json:"feedback"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// LeaderboardResponse carries the ranked board.
type LeaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type APIHandler struct {
	questions QuestionProvider
	results   ResultHandler
	logger    *slog.Logger
}

func NewAPIHandler(questions QuestionProvider, results ResultHandler, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{questions: questions, results: results, logger: logger}
}

func (h *APIHandler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	questions, err := h.questions.Questions(r.Context())
	if errors.Is(err, domain.ErrContent) {
		h.logger.Warn("question bank is empty")
		writeJSON(w, http.StatusOK, QuestionsResponse{Status: "success", Data: []domain.Question{}})
		return
	}
	if err != nil {
		h.logger.Error("loading questions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, QuestionsErrorResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, QuestionsResponse{Status: "success", Data: questions})
}

func (h *APIHandler) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var req domain.ResultSubmission
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.results.Submit(r.Context(), req)
	if err != nil {
		h.logger.Warn("submitting result failed", "phone", req.Phone, "error", err)
		writeServiceError(w, err)
		return
	}
	if outcome.Duplicate {
		writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Message: "duplicate"})
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{Success: true, ID: outcome.ID})
}

func (h *APIHandler) handleSaveFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.results.SaveFeedback(r.Context(), req.Email, req.Feedback); err != nil {
		h.logger.Warn("saving feedback failed", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *APIHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	lb, err := h.results.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("loading leaderboard failed", "error", err)
		writeServiceError(w, err)
		return
	}
	entries := lb.Entries
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries})
}
