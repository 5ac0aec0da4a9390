// Package upstream talks to the content/mail web app that owns the question sheet.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"vocab-quiz/internal/domain"
)

// ErrNotConfigured is returned when no upstream URL is set.
var ErrNotConfigured = errors.New("upstream url not configured")

type questionsResponse struct {
	Status  string            `json:"status"`
	Data    []domain.Question `json:"data"`
	Message string            `json:"message"`
}

type resultMail struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Score    float64 `json:"score"`
	Duration int     `json:"duration"`
}

// Client calls the upstream web app.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{url: strings.TrimSpace(url), httpClient: httpClient}
}

// LoadQuestions fetches the question sheet. A non-success status in the body is an error.
func (c *Client) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	if c.url == "" {
		return nil, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream returned status %d", domain.ErrNetwork, resp.StatusCode)
	}

	var payload questionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upstream questions: %w", err)
	}
	if payload.Status != "success" {
		return nil, fmt.Errorf("%w: upstream status %q: %s", domain.ErrNetwork, payload.Status, payload.Message)
	}
	return payload.Data, nil
}

// NotifyResult asks the upstream to mail the participant their result.
func (c *Client) NotifyResult(ctx context.Context, result domain.ExamResult) error {
	if c.url == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(resultMail{
		Name:     result.Name,
		Email:    result.Email,
		Score:    result.Score,
		Duration: result.Duration,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: upstream returned status %d", domain.ErrNetwork, resp.StatusCode)
	}
	return nil
}
