// ABOUTME: HTTP client for the cledger API used by the remote MCP mode.
// ABOUTME: Logs in once per process and reuses the cached bearer token until it expires.
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
	"sync"
	"time"

	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/models"
	"github.com/harperreed/cledger/internal/storage"
)

// expirySkew renews a token slightly before it expires.
const expirySkew = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: %d %s", e.Status, e.Message)
}

// Unwrap maps statuses back onto the storage and model sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return storage.ErrNotFound
	case http.StatusBadRequest:
		return models.ErrInvalid
	default:
		return nil
	}
}

// Client talks to a running cledger API.
type Client struct {
	baseURL  string
	password string
	http     *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// New creates a client for baseURL. An empty password skips login.
func New(baseURL, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// bearer returns a valid token, logging in only when none is cached.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.password == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(expirySkew).Before(c.expiresAt) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"password": c.password})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("log in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("log in: %w", readError(resp))
	}

	var out struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode login: %w", err)
	}
	c.token = out.Token
	c.expiresAt = out.ExpiresAt
	return c.token, nil
}

func (c *Client) forgetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

// request sends a JSON request and decodes the response into out.
// A 401 on a cached token triggers one fresh login and retry.
func (c *Client) request(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		token, err := c.bearer(ctx)
		if err != nil {
			return err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized && token != "" && attempt == 0 {
			resp.Body.Close()
			c.forgetToken(token)
			continue
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		return nil
	}
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func filterQuery(f storage.SessionFilter) string {
	q := url.Values{}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListSessions lists sessions newest first.
func (c *Client) ListSessions(ctx context.Context, f storage.SessionFilter) ([]*models.Session, error) {
	var out []*models.Session
	err := c.request(ctx, http.MethodGet, "/api/sessions"+filterQuery(f), nil, &out)
	return out, err
}

// GetSession fetches one session by ID or prefix.
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var out models.Session
	if err := c.request(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession creates a session.
func (c *Client) CreateSession(ctx context.Context, in models.SessionInput) (*models.Session, error) {
	var out models.Session
	if err := c.request(ctx, http.MethodPost, "/api/sessions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSession replaces a session's editable fields.
func (c *Client) UpdateSession(ctx context.Context, id string, in models.SessionInput) (*models.Session, error) {
	var out models.Session
	if err := c.request(ctx, http.MethodPut, "/api/sessions/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession deletes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// ListInjuries lists injuries from sessions in the filter's date range.
func (c *Client) ListInjuries(ctx context.Context, f storage.SessionFilter) ([]analytics.InjuryEntry, error) {
	f.Limit = 0
	var out []analytics.InjuryEntry
	err := c.request(ctx, http.MethodGet, "/api/injuries"+filterQuery(f), nil, &out)
	return out, err
}

// Analytics fetches the current analytics snapshot.
func (c *Client) Analytics(ctx context.Context) (*models.Analytics, error) {
	var out models.Analytics
	if err := c.request(ctx, http.MethodGet, "/api/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary fetches the training summary.
func (c *Client) Summary(ctx context.Context) (*analytics.TrainingSummary, error) {
	var out analytics.TrainingSummary
	if err := c.request(ctx, http.MethodGet, "/api/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInsights lists insights pinned first.
func (c *Client) ListInsights(ctx context.Context) ([]*models.Insight, error) {
	var out []*models.Insight
	err := c.request(ctx, http.MethodGet, "/api/insights", nil, &out)
	return out, err
}

// CreateInsight creates an insight.
func (c *Client) CreateInsight(ctx context.Context, in models.InsightInput) (*models.Insight, error) {
	var out models.Insight
	if err := c.request(ctx, http.MethodPost, "/api/insights", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInsight replaces an insight's content and pinned state.
func (c *Client) UpdateInsight(ctx context.Context, id string, in models.InsightInput) (*models.Insight, error) {
	var out models.Insight
	if err := c.request(ctx, http.MethodPut, "/api/insights/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InjuryLocations lists previously used injury locations.
func (c *Client) InjuryLocations(ctx context.Context) ([]string, error) {
	var out []string
	err := c.request(ctx, http.MethodGet, "/api/injury-locations", nil, &out)
	return out, err
}

// Venues lists previously used venues.
func (c *Client) Venues(ctx context.Context) ([]string, error) {
	var out []string
	err := c.request(ctx, http.MethodGet, "/api/venues", nil, &out)
	return out, err
}

