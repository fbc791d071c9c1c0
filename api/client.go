// Package api is the HTTP client for the ride-booking backend.
package api

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
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient returns a client for baseURL. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Request describes one JSON call. When Auth is set the call is refused with
// ErrMissingToken when MissingToken(Token) holds.
type Request struct {
	Method string
	Path   string
	Token  string
	Auth   bool
	Body   any
}

// Do sends req and decodes a 2xx JSON response into out (if non-nil).
// Non-2xx responses become *Error with the server's message when it sent one.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if req.Auth && MissingToken(req.Token) {
		return &Error{Kind: KindAuth, Err: ErrMissingToken}
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", req.Method, req.Path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Auth {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed", "method", req.Method, "path", req.Path, "err", err)
		return &Error{Kind: KindNetwork, Message: "network request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "read response failed", Err: err}
	}
	c.logger.Debug("request", "method", req.Method, "path", req.Path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: serverMessage(payload, resp.StatusCode),
		}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func serverMessage(payload []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(payload)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}

// MissingToken reports whether token is empty or one of the placeholder
// strings a cleared mobile store leaves behind.
func MissingToken(token string) bool {
	switch strings.TrimSpace(token) {
	case "", "null", "undefined":
		return true
	}
	return false
}

// IsStatus reports whether err is an *Error carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
