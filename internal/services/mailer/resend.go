package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the default Resend API base URL
	DefaultBaseURL = "https://api.resend.com"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrMissingAPIKey indicates no API key was configured
	ErrMissingAPIKey = errors.New("resend API key is not configured")
	// ErrMissingSender indicates no sender address was configured
	ErrMissingSender = errors.New("sender email address is not configured")
)

// APIError represents an error response from the Resend API
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend API error (status %d, name %s): %s", e.StatusCode, e.Name, e.Message)
}

// Sender delivers an HTML email and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// ResendClient implements Sender using the Resend REST API
type ResendClient struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewResendClient creates a new Resend client. from is the sender address
// used for all outgoing mail.
func NewResendClient(apiKey, from string, logger *zap.Logger) *ResendClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendClient{
		apiKey:  apiKey,
		from:    from,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// NewResendClientWithBaseURL creates a client against a custom API base URL.
func NewResendClientWithBaseURL(apiKey, from, baseURL string, logger *zap.Logger) *ResendClient {
	c := NewResendClient(apiKey, from, logger)
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers an HTML email and returns the Resend message ID.
func (c *ResendClient) Send(ctx context.Context, to, subject, html string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if c.from == "" {
		return "", ErrMissingSender
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read email response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		c.logger.Error("email_send_failed",
			zap.Int("status", resp.StatusCode),
			zap.String("error_name", apiErr.Name))
		return "", apiErr
	}

	var sent sendResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return "", fmt.Errorf("failed to parse email response: %w", err)
	}

	c.logger.Info("email_sent",
		zap.String("email_id", sent.ID),
		zap.String("subject", subject))

	return sent.ID, nil
}

var _ Sender = (*ResendClient)(nil)
