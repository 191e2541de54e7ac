// Package client is a small HTTP client for the admin login approval flow.
// It requests a login, then polls until an admin decides or the request
// expires.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/upikart/upikart/internal/models"
	"github.com/upikart/upikart/internal/services"
)

const defaultPollInterval = 3 * time.Second

type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) { c.pollInterval = interval }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// RequestLogin opens a login request and returns its polling token.
func (c *Client) RequestLogin(ctx context.Context, deviceLabel string) (*models.LoginRequest, error) {
	body, err := json.Marshal(map[string]string{"device_label": deviceLabel})
	if err != nil {
		return nil, err
	}

	var req models.LoginRequest
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body), &req); err != nil {
		return nil, fmt.Errorf("failed to request login: %w", err)
	}
	return &req, nil
}

// CheckApproval polls a login request once.
func (c *Client) CheckApproval(ctx context.Context, token string) (*services.CheckResult, error) {
	var result services.CheckResult
	if err := c.do(ctx, http.MethodGet, "/api/auth/login/"+url.PathEscape(token), nil, &result); err != nil {
		return nil, fmt.Errorf("failed to check login request: %w", err)
	}
	return &result, nil
}

// WaitForApproval polls until the request reaches a terminal status or ctx is
// done. Rejected and expired are successful returns; the caller inspects the
// status. A failed poll is retried on the next tick; only ctx ends the wait
// early.
func (c *Client) WaitForApproval(ctx context.Context, token string) (*services.CheckResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.CheckApproval(ctx, token)
		if err == nil && result.Status != models.ApprovalPending {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	if !env.Success {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, env.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
