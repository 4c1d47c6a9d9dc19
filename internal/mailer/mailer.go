package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer delivers transactional mail
type Mailer interface {
	SendCompletionEmail(ctx context.Context, to, taskTitle string) error
}

// completionPayload is the wire shape the mail endpoint expects
type completionPayload struct {
	To        string `json:"to"`
	TaskTitle string `json:"taskTitle"`
}

// HTTPMailer posts completion emails to an external mail endpoint
type HTTPMailer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPMailer creates a mailer for the given endpoint. apiKey may be
// empty when the endpoint is unauthenticated.
func NewHTTPMailer(endpoint, apiKey string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendCompletionEmail posts the task-completed congratulation
func (m *HTTPMailer) SendCompletionEmail(ctx context.Context, to, taskTitle string) error {
	body, err := json.Marshal(completionPayload{To: to, TaskTitle: taskTitle})
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send mail request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	return nil
}

var _ Mailer = (*HTTPMailer)(nil)
