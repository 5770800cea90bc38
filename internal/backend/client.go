// Package backend is the HTTP client of the church REST backend.
// It attaches the session bearer token, classifies failures into error kinds
// and invalidates the session globally on 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/session"
)

// SuperAdminPrefix is the path prefix of every console endpoint.
const SuperAdminPrefix = "/api/super-admin"

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 8 << 20

// Path joins parts under SuperAdminPrefix, e.g. Path("users", 7, "role").
func Path(parts ...any) string {
	var b strings.Builder

	b.WriteString(SuperAdminPrefix)

	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(fmt.Sprint(p))
	}

	return b.String()
}

// Option configures a Factory.
type Option func(*Factory)

// WithUnauthorizedHandler registers a hook run after a 401 cleared the session.
func WithUnauthorizedHandler(fn func()) Option {
	return func(f *Factory) {
		f.onUnauthorized = fn
	}
}

// WithBaseTransport replaces the network transport below the retry layer.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(f *Factory) {
		f.base = rt
	}
}

// Factory holds the state shared by all clients: base url, transport stack
// and rate limiter. Each session gets its own Client through For.
type Factory struct {
	mu      sync.RWMutex
	baseURL string

	timeout        time.Duration
	limiter        *rate.Limiter
	base           http.RoundTripper
	transport      http.RoundTripper // retry layer shared by all clients
	onUnauthorized func()
}

// NewFactory creates a Factory for cfg.
func NewFactory(cfg config.Backend, opts ...Option) *Factory {
	f := &Factory{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		timeout: cfg.Timeout,
	}

	for _, opt := range opts {
		opt(f)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}

		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	f.transport = newRetryTransport(cfg, f.base)

	return f
}

// BaseURL returns the current backend url.
func (f *Factory) BaseURL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.baseURL
}

// SetBaseURL switches every client to a new backend url.
func (f *Factory) SetBaseURL(u string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.baseURL = strings.TrimRight(u, "/")
}

// For returns a client bound to store.
func (f *Factory) For(store session.Store) *Client {
	return &Client{
		factory: f,
		store:   store,
		authed: &http.Client{Transport: instrument{next: &oauth2.Transport{
			Source: storeTokenSource{store: store},
			Base:   f.transport,
		}}},
		anon: &http.Client{Transport: instrument{next: f.transport}},
	}
}

// Client issues JSON requests on behalf of one session.
type Client struct {
	factory *Factory
	store   session.Store
	authed  *http.Client
	anon    *http.Client
}

// Store returns the session store this client is bound to.
func (c *Client) Store() session.Store {
	return c.store
}

// Get fetches path into out. GETs may be retried.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body to path and decodes the answer into out (may be nil).
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends body to path and decodes the answer into out (may be nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete deletes path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends an authenticated request. body is JSON encoded when not nil and the
// success response is decoded into out when not nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, c.authed, method, path, body, out, true)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any, authed bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if c.factory.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.factory.timeout)
		defer cancel()
	}

	if method == http.MethodGet {
		ctx = markIdempotent(ctx)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	if c.factory.limiter != nil {
		if err = c.factory.limiter.Wait(ctx); err != nil {
			return limiterError(ctx, err)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		be := transportError(err)
		if be.Kind == KindUnauthorized {
			return c.unauthorized(0)
		}

		return be
	}

	defer resp.Body.Close() //nolint:errcheck

	if authed && resp.StatusCode == http.StatusUnauthorized {
		return c.unauthorized(resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	if err = decodeBody(data, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "unexpected response from backend", Err: err}
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}

		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.factory.BaseURL()+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// unauthorized clears the session and runs the hook. The response body is not read.
func (c *Client) unauthorized(status int) error {
	if err := c.store.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear session after unauthorized response")
	}

	log.Warn().Int("status", status).Msg("backend session rejected, signed out")

	if c.factory.onUnauthorized != nil {
		c.factory.onUnauthorized()
	}

	return &Error{Kind: KindUnauthorized, Status: status, Message: "your session has expired, please sign in again"}
}
