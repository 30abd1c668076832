// Package cursor talks to the private dashboard API behind cursor.com and
// normalizes what it returns into core.CombinedUsage.
package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/identity"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
	"github.com/janekbaraniewski/cursorusage/internal/version"
)

const (
	usagePath      = "/api/usage"
	teamsPath      = "/api/dashboard/teams"
	teamSpendPath  = "/api/dashboard/get-team-spend"
	profilePath    = "/api/auth/stripe"
	usageEventPath = "/api/dashboard/get-filtered-usage-events"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Client is a dashboard API client. It holds no per-account state; the
// credential and cached classification live on the core.Session passed to
// each call.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// NewClientFromConfig builds a client from the api_base_url and
// http_timeout_seconds settings.
func NewClientFromConfig(cfg config.Config) *Client {
	return NewClient(cfg.APIBaseURL, cfg.HTTPTimeout())
}

func (c *Client) get(ctx context.Context, id core.AccountIdentity, path string, result any) error {
	return c.do(ctx, id, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, id core.AccountIdentity, path string, body, result any) error {
	if body == nil {
		body = struct{}{}
	}
	return c.do(ctx, id, http.MethodPost, path, body, result)
}

func (c *Client) do(ctx context.Context, id core.AccountIdentity, method, path string, body, result any) error {
	op := method + " " + strings.SplitN(path, "?", 2)[0]

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return core.NewError(core.KindParse, op, fmt.Errorf("encoding request: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return core.NewError(core.KindNetwork, op, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Cookie", identity.CookieHeader(id))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", config.DefaultAPIBaseURL)
	req.Header.Set("User-Agent", "cursorusage/"+version.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return core.NewError(core.KindNetwork, op, fmt.Errorf("timed out after %s: %w", c.http.Timeout, context.DeadlineExceeded))
		}
		return core.NewError(core.KindNetwork, op, err)
	}
	defer resp.Body.Close()
	log.Printf("[cursor] %s -> %d (%s)", op, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	if resp.StatusCode != http.StatusOK {
		log.Printf("[cursor] %s request headers: %v", op, parsers.RedactHeaders(req.Header))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return core.NewError(core.KindAuthRejected, op, fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return core.NewError(core.KindNetwork, op, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return core.NewError(core.KindParse, op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
