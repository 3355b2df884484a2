package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/repcounter/internal/models"
)

// HTTPClient implements DataSource by calling the RepCounter REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the counter runs elsewhere (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNotFound marks a 404 so callers can tell "nothing there" from failure.
type errNotFound struct{ path string }

func (e errNotFound) Error() string { return "httpclient: " + e.path + " not found" }

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return errNotFound{path: path}
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.ExerciseInfo, error) {
	var out []models.ExerciseInfo
	if err := c.get(ctx, "/api/v1/exercises", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetTotals(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	if err := c.get(ctx, "/api/v1/totals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetExerciseStats(ctx context.Context, exercise string) (*models.ExerciseStats, error) {
	var out models.ExerciseStats
	if err := c.get(ctx, "/api/v1/totals/"+url.PathEscape(exercise), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetHistory(ctx context.Context, exercise string, limit int) ([]models.SessionRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []models.SessionRecord
	if err := c.get(ctx, "/api/v1/history/"+url.PathEscape(exercise), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCurrentSession(ctx context.Context) (*models.SessionStatus, error) {
	var out models.SessionStatus
	err := c.get(ctx, "/api/v1/sessions/current", nil, &out)
	if _, ok := err.(errNotFound); ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
