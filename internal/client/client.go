// Package client is a typed HTTP client for the invman REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/invman/internal/session"
)

// ErrUnauthorized is matched by errors from requests the server rejected with
// 401. The stored session has been cleared by then.
var ErrUnauthorized = errors.New("session expired, please log in again")

// ErrNotSignedIn is returned when a request needs a session and there is none.
var ErrNotSignedIn = errors.New("not signed in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the API on behalf of the session held by Session.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session session.Provider

	now func() time.Time
}

// New returns a client for baseURL. A nil provider keeps the session in memory.
func New(baseURL string, sp session.Provider) *Client {
	if sp == nil {
		sp = &session.Memory{}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Session: sp,
		now:     time.Now,
	}
}

// request describes one API call.
type request struct {
	method string
	path   string
	body   any
	// raw is sent as-is instead of JSON when set.
	raw         io.Reader
	contentType string
	public      bool
}

// doJSON performs req and decodes a JSON response into out, if non-nil.
func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// do performs req and returns the response when it is 2xx. The caller closes
// the body.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	var body io.Reader
	contentType := req.contentType
	switch {
	case req.raw != nil:
		body = req.raw
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BaseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	authed := false
	if !req.public {
		token, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		authed = true
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	slog.Debug("api request", "method", req.method, "path", req.path, "status", resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := parseError(resp)
	if resp.StatusCode == http.StatusUnauthorized && authed {
		if err := c.Session.Clear(); err != nil {
			slog.Error("clearing session", "error", err)
		}
	}
	return nil, apiErr
}

// accessToken returns the session's access token, refreshing it first when it
// has expired and the refresh token is still good.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	s, err := c.Session.Get()
	if err != nil {
		return "", err
	}
	if s == nil || s.Tokens.AccessToken == "" {
		return "", ErrNotSignedIn
	}

	now := c.now()
	if !s.AccessExpired(now) || s.RefreshExpired(now) {
		return s.Tokens.AccessToken, nil
	}

	refreshed, err := c.refresh(ctx, s)
	if err != nil {
		slog.Warn("refreshing access token", "error", err)
		return s.Tokens.AccessToken, nil
	}
	return refreshed.Tokens.AccessToken, nil
}

// parseError reads a failed response. The message is taken from a JSON
// detail, message or error field, then from the raw body, then from the status.
func parseError(resp *http.Response) *APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	e := &APIError{Status: resp.StatusCode}

	var fields map[string]any
	if json.Unmarshal(data, &fields) == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if msg := messageOf(fields[key]); msg != "" {
				e.Message = msg
				return e
			}
		}
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		e.Message = text
		return e
	}
	e.Message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	return e
}

func messageOf(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}
