package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"roundbuy/pkg/logger"
	"roundbuy/pkg/telemetry"
)

const defaultTimeout = 30 * time.Second

// Paths exempt from the silent-refresh flow: a 401 from them is a
// credential problem, not an expired session.
const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh-token"
)

// TokenSource supplies and persists the bearer credentials the client
// attaches and rotates. The durable implementation lives in
// pkg/session; tests use in-memory fakes.
type TokenSource interface {
	AccessToken() (string, error)
	RefreshToken() (string, error)
	StoreTokens(access, refresh string) error
	Clear() error
}

// Client performs authenticated requests against the RoundBuy API and
// normalizes every failure into *Error. On a 401 it attempts exactly
// one silent token refresh and retries the original request once; a
// second 401 terminates in a RequireLogin error, never a loop.
type Client struct {
	base    string
	doer    Doer
	tokens  TokenSource
	limiter *rate.Limiter
	timeout time.Duration

	refreshMu sync.Mutex
}

type Option func(*Client)

// WithDoer swaps the HTTP engine (see NewFastHTTPDoer).
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTimeout overrides the uniform 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit bounds outbound request rate client-side.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// New returns a client rooted at baseURL (including the
// /api/v1/mobile-app prefix). tokens may be nil for a client that
// never authenticates.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.doer == nil {
		c.doer = NewNetHTTPDoer(c.timeout)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	start := time.Now()
	err := c.exchange(ctx, method, path, query, body, out, false)
	telemetry.ObserveRequest(time.Since(start))
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if te, ok := AsError(err); ok {
			outcome = te.Code
		}
	}
	telemetry.IncRequest(method, outcome)
	return err
}

func (c *Client) exchange(ctx context.Context, method, path string, query url.Values, body, out any, retried bool) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return networkError()
		}
	}

	payload, err := c.encodeBody(method, body)
	if err != nil {
		return &Error{Code: CodeValidationError, Message: "failed to encode request body: " + err.Error()}
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	if method != http.MethodGet {
		header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok, err := c.tokens.AccessToken(); err == nil && tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doer.Do(rctx, &Request{Method: method, URL: u, Header: header, Body: payload})
	if err != nil {
		logger.Debug("api_no_response", "method", method, "path", path, "error", err)
		return networkError()
	}
	logger.Debug("api_response", "method", method, "path", path, "status", resp.Status)
	return c.handle(ctx, method, path, query, body, out, resp, retried)
}

func (c *Client) encodeBody(method string, body any) ([]byte, error) {
	if method == http.MethodGet {
		return nil, nil
	}
	if body == nil {
		// non-GET without a payload still sends an empty object
		return []byte("{}"), nil
	}
	return json.Marshal(body)
}

func (c *Client) handle(ctx context.Context, method, path string, query url.Values, body, out any, resp *Response, retried bool) error {
	var env Envelope
	decodeErr := json.Unmarshal(resp.Body, &env)

	if resp.Status >= 200 && resp.Status < 300 {
		if decodeErr != nil {
			return &Error{Status: resp.Status, Code: CodeServerError, Message: "malformed response body"}
		}
		if !env.Success {
			code := env.ErrorCode
			if code == "" {
				code = CodeServerError
			}
			return &Error{Status: resp.Status, Code: code, Message: env.Message}
		}
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return &Error{Status: resp.Status, Code: CodeServerError, Message: "malformed response data: " + err.Error()}
			}
		}
		return nil
	}

	switch {
	case resp.Status == http.StatusUnauthorized:
		if strings.Contains(path, loginPath) {
			code := env.ErrorCode
			if code == "" {
				code = CodeInvalidCredentials
			}
			return &Error{Status: resp.Status, Code: code, Message: messageOr(env, "Invalid email or password")}
		}
		if strings.Contains(path, refreshPath) || retried {
			c.clearCredentials()
			return requireLogin()
		}
		if err := c.refresh(ctx); err != nil {
			return err
		}
		return c.exchange(ctx, method, path, query, body, out, true)

	case resp.Status == http.StatusForbidden:
		e := &Error{Status: resp.Status, Code: env.ErrorCode, Message: messageOr(env, "Forbidden")}
		if e.Code == "" {
			e.Code = "FORBIDDEN"
		}
		switch env.ErrorCode {
		case CodeSubscriptionRequired:
			e.RequireSubscription = true
		case CodeFeatureLimitExceeded:
			e.LimitExceeded = true
		}
		return e

	case resp.Status == http.StatusNotFound:
		return &Error{Status: resp.Status, Code: CodeNotFound, Message: messageOr(env, "Resource not found")}

	case resp.Status == http.StatusBadRequest:
		return &Error{Status: resp.Status, Code: CodeValidationError, Message: messageOr(env, "Invalid request")}

	case resp.Status >= 500:
		return &Error{Status: resp.Status, Code: CodeServerError, Message: "Server error. Please try again later."}

	default:
		code := env.ErrorCode
		if code == "" {
			code = CodeServerError
		}
		return &Error{Status: resp.Status, Code: code, Message: messageOr(env, "An error occurred")}
	}
}

// refresh performs the one silent token rotation allowed per failed
// request. Any failure clears stored credentials and yields a
// RequireLogin error.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.tokens == nil {
		return requireLogin()
	}
	rt, err := c.tokens.RefreshToken()
	if err != nil || rt == "" {
		c.clearCredentials()
		return requireLogin()
	}

	payload, _ := json.Marshal(map[string]string{"refresh_token": rt})
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/json")

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doer.Do(rctx, &Request{Method: http.MethodPost, URL: c.base + refreshPath, Header: header, Body: payload})
	if err != nil {
		telemetry.IncRefresh("failed")
		c.clearCredentials()
		return requireLogin()
	}

	var env Envelope
	if resp.Status != http.StatusOK || json.Unmarshal(resp.Body, &env) != nil || !env.Success {
		telemetry.IncRefresh("failed")
		c.clearCredentials()
		return requireLogin()
	}
	var tk struct {
		Access  string `json:"access_token"`
		Refresh string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &tk); err != nil || tk.Access == "" || tk.Refresh == "" {
		telemetry.IncRefresh("failed")
		c.clearCredentials()
		return requireLogin()
	}
	if err := c.tokens.StoreTokens(tk.Access, tk.Refresh); err != nil {
		telemetry.IncRefresh("failed")
		return requireLogin()
	}
	telemetry.IncRefresh("ok")
	logger.Debug("token_refreshed")
	return nil
}

func (c *Client) clearCredentials() {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.Clear(); err != nil {
		logger.Warn("credential_clear_failed", "error", err)
	}
}

func requireLogin() *Error {
	return &Error{
		Status:       http.StatusUnauthorized,
		Code:         CodeUnauthorized,
		Message:      "Session expired. Please login again.",
		RequireLogin: true,
	}
}

func networkError() *Error {
	return &Error{
		Code:    CodeNetworkError,
		Message: "Network error. Please check your internet connection.",
	}
}

func messageOr(env Envelope, fallback string) string {
	if env.Message != "" {
		return env.Message
	}
	return fallback
}
