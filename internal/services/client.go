// Resilient HTTP client shared by every remote service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

// maxErrorBody caps how much of a failed response is kept on [shared.UpstreamError].
const maxErrorBody = 4096

// APIRequest describes one logical API call. Endpoint is joined to the client's base URL unless it is absolute.
//
// Body, when non-nil, is encoded as JSON.
type APIRequest struct {
	Method   string
	Endpoint string
	Header   http.Header
	Params   url.Values
	Body     any
}

// ClientOptions configures a [Client]. Zero values fall back to defaults.
type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// Store supplies and receives the bearer token. Without one, requests carry only the caller's headers.
	Store session.Store
	// Auth refreshes the access token after a 401. Without one, 401 is an ordinary [shared.UpstreamError].
	Auth    Authorizer
	Timeout time.Duration
	// Limiter gates every send, retries included. Nil disables rate limiting.
	Limiter *rate.Limiter
	Logger  *log.Logger
}

// Client sends JSON API requests with a per-attempt timeout, optional rate limiting and a single transparent
// re-authorization after a 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
	auth       Authorizer
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a [Client] from opts.
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Timeout <= 0 {
		opts.Timeout = shared.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		auth:       opts.Auth,
		timeout:    opts.Timeout,
		limiter:    opts.Limiter,
		logger:     opts.Logger,
	}
}

// NewLimiter builds a token bucket allowing perSecond sends with the given burst.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Call performs req and decodes a 2xx JSON response into out (when non-nil).
//
// A 401 triggers exactly one refresh through the session store and authorizer followed by one resend.
// A failed refresh, a missing refresh token or a second 401 clears the stored access token and returns
// [shared.ErrAuthExpired]. Any other non-2xx status returns a [shared.UpstreamError] and is not retried.
func (c *Client) Call(ctx context.Context, req APIRequest, out any) error {
	header := req.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	if c.store != nil && header.Get("Authorization") == "" {
		token, ok, err := c.store.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to read access token: %w", err)
		}
		if ok {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	status, body, err := c.send(ctx, req, header, 1)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.auth != nil && c.store != nil {
		token, err := c.reauthorize(ctx)
		if err != nil {
			return err
		}

		header.Set("Authorization", "Bearer "+token)
		status, body, err = c.send(ctx, req, header, 2)
		if err != nil {
			return err
		}

		if status == http.StatusUnauthorized {
			c.clearToken(ctx)
			return fmt.Errorf("%w: unauthorized after refresh", shared.ErrAuthExpired)
		}
	}

	if status < 200 || status >= 300 {
		return &shared.UpstreamError{Status: status, Body: truncate(string(body), maxErrorBody)}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// reauthorize exchanges the stored refresh token for a new access token and stores it.
func (c *Client) reauthorize(ctx context.Context) (string, error) {
	refresh, ok, err := c.store.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if !ok {
		c.clearToken(ctx)
		return "", fmt.Errorf("%w: %w", shared.ErrAuthExpired, shared.ErrNoRefreshToken)
	}

	token, err := c.auth.Refresh(ctx, refresh)
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		c.clearToken(ctx)
		return "", fmt.Errorf("%w: %w", shared.ErrAuthExpired, err)
	}

	if err := c.store.SetAccessToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}
	c.logger.Debug("access token refreshed")
	return token, nil
}

func (c *Client) clearToken(ctx context.Context) {
	if err := c.store.ClearAccessToken(ctx); err != nil {
		c.logger.Warn("failed to clear access token", "error", err)
	}
}

// send performs one attempt under the per-call timeout and returns the status and body.
func (c *Client) send(ctx context.Context, req APIRequest, header http.Header, attempt int) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(callCtx, req, header)
	if err != nil {
		return 0, nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, c.transportError(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, c.transportError(ctx, callCtx, err)
	}

	c.logger.Debug("api call",
		"method", httpReq.Method,
		"endpoint", req.Endpoint,
		"status", resp.StatusCode,
		"attempt", attempt,
		"duration", time.Since(start),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) transportError(parent, callCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &shared.UpstreamError{Timeout: true}
	}
	return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
}

func (c *Client) newRequest(ctx context.Context, req APIRequest, header http.Header) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint := req.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
	}
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + req.Params.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header = header.Clone()
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
