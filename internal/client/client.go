// Package client is the player's view of the quiz backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vocab-quiz/internal/domain"
)

const statusSuccess = "success"

// APIError is a failed backend call. It matches domain.ErrNetwork with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return domain.ErrNetwork
}

type questionsResponse struct {
	Status  string            `json:"status"`
	Data    []domain.Question `json:"data"`
	Message string            `json:"message"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type feedbackRequest struct {
	Email    string `json:"email"`
	Feedback string `json:"feedback"`
}

type leaderboardResponse struct {
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client implements the player-side collaborators over the backend HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// FetchQuestions loads the ordered question set for a new quiz.
func (c *Client) FetchQuestions(ctx context.Context) ([]domain.Question, error) {
	var payload questionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/questions", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusSuccess {
		return nil, &APIError{StatusCode: http.StatusOK, Message: payload.Message}
	}
	return payload.Data, nil
}

func (c *Client) SubmitResult(ctx context.Context, submission domain.ResultSubmission) (domain.SubmitOutcome, error) {
	var payload submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/submit-result", submission, &payload); err != nil {
		return domain.SubmitOutcome{}, err
	}
	if !payload.Success {
		return domain.SubmitOutcome{}, &APIError{StatusCode: http.StatusOK, Message: "submission not accepted"}
	}
	return domain.SubmitOutcome{ID: payload.ID, Duplicate: payload.Message == "duplicate"}, nil
}

func (c *Client) SaveFeedback(ctx context.Context, email, feedback string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/save-feedback", feedbackRequest{Email: email, Feedback: feedback}, nil)
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/leaderboard?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Entries, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = strings.TrimSpace(payload.Error)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(payload.Message)
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrNetwork, path, err)
	}
	return nil
}
