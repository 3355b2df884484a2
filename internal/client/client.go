// Package client talks to a running repcounter server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repcounter/internal/models"
)

// Client sends session commands and frames to the server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	// backoff is the delay before the first retry; it doubles per attempt.
	backoff time.Duration
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// NewClient creates a new HTTP client for the server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		backoff: time.Second,
	}
}

// StartSession opens a session on the server.
func (c *Client) StartSession(ctx context.Context, exercise string, target int) (*models.SessionStatus, error) {
	var out models.SessionStatus
	req := models.StartSessionRequest{Exercise: exercise, TargetReps: target}
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &out); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	return &out, nil
}

// SendFrame posts one frame to the live session.
func (c *Client) SendFrame(ctx context.Context, frame models.FramePayload) (*models.SessionStatus, error) {
	var out models.SessionStatus
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/current/frames", frame, &out); err != nil {
		return nil, fmt.Errorf("sending frame: %w", err)
	}
	return &out, nil
}

// CloseSession persists the live session.
func (c *Client) CloseSession(ctx context.Context) (*models.SessionRecord, error) {
	var out models.SessionRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/current/close", nil, &out); err != nil {
		return nil, fmt.Errorf("closing session: %w", err)
	}
	return &out, nil
}

// Totals fetches lifetime totals per exercise.
func (c *Client) Totals(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodGet, "/api/v1/totals", nil, &out); err != nil {
		return nil, fmt.Errorf("fetching totals: %w", err)
	}
	return out, nil
}

// do sends a request and decodes the JSON response into out.
// Retries up to 3 times with exponential backoff on transport errors and
// 5xx responses; 4xx responses are returned immediately.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		}

		lastErr = &StatusError{Code: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("after 3 attempts: %w", lastErr)
}
