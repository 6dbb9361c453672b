// Package voice talks to the hosted voice-AI service that runs the
// receptionist assistant.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/sendgrid/rest"
)

type Client struct {
	APIHost string
	APIKey  string
}

type CallMetadata struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
}

type WebCall struct {
	ID         string `json:"id"`
	WebCallURL string `json:"webCallUrl"`
}

type createTokenRequest struct {
	AssistantID      string `json:"assistantId"`
	ExpiresInSeconds int    `json:"expiresInSeconds"`
}

type createTokenResponse struct {
	SessionToken string `json:"sessionToken"`
}

type startWebCallRequest struct {
	AssistantID string       `json:"assistantId"`
	Metadata    CallMetadata `json:"metadata"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice api error: status=%d body=%s", e.StatusCode, e.Body)
}

// NewClient builds a client for the configured host. apiKey is passed
// separately because it may have been decrypted from the configured value.
func NewClient(cfg *config.Config, apiKey string) *Client {
	return &Client{
		APIHost: cfg.VoiceAPIHost,
		APIKey:  apiKey,
	}
}

// CreateSessionToken mints a short-lived token the browser SDK uses to open
// a session with the assistant.
func (c *Client) CreateSessionToken(ctx context.Context, assistantID string, ttl time.Duration) (string, error) {
	var out createTokenResponse
	err := c.do(ctx, "/token", createTokenRequest{
		AssistantID:      assistantID,
		ExpiresInSeconds: int(ttl / time.Second),
	}, &out)
	if err != nil {
		return "", err
	}
	if out.SessionToken == "" {
		return "", fmt.Errorf("voice api returned an empty session token")
	}
	return out.SessionToken, nil
}

// StartWebCall opens a web call with the assistant, tagging it with the
// visitor's details.
func (c *Client) StartWebCall(ctx context.Context, assistantID string, metadata CallMetadata) (*WebCall, error) {
	var out WebCall
	if err := c.do(ctx, "/call/web", startWebCallRequest{AssistantID: assistantID, Metadata: metadata}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("voice api marshal error: %w", err)
	}

	request := rest.Request{
		Method:  rest.Post,
		BaseURL: strings.TrimRight(c.APIHost, "/") + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.APIKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	}

	response, err := rest.SendWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("voice api request error: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &APIError{StatusCode: response.StatusCode, Body: response.Body}
	}

	if err := json.Unmarshal([]byte(response.Body), out); err != nil {
		return fmt.Errorf("voice api unmarshal error: %w", err)
	}
	return nil
}
