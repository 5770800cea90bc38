package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/logger/adapter/stdlogger"
	"github.com/churchadmin/churchadmin/internal/session"
)

// HeaderRequestID carries the per request correlation id.
const HeaderRequestID = "X-Request-Id"

type idempotentKey struct{}

// markIdempotent allows the retry policy to repeat the request.
func markIdempotent(ctx context.Context) context.Context {
	return context.WithValue(ctx, idempotentKey{}, true)
}

func isIdempotent(ctx context.Context) bool {
	ok, _ := ctx.Value(idempotentKey{}).(bool)
	return ok
}

// retryPolicy retries idempotent requests with the default policy and never
// repeats anything else.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if !isIdempotent(ctx) {
		if ctx.Err() != nil {
			return false, ctx.Err() //nolint:wrapcheck
		}

		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err) //nolint:wrapcheck
}

// newRetryTransport wraps base with go-retryablehttp.
func newRetryTransport(cfg config.Backend, base http.RoundTripper) http.RoundTripper {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = stdlogger.New().With("component", "backend")

	if base != nil {
		rc.HTTPClient = &http.Client{Transport: base}
	}

	return &retryablehttp.RoundTripper{Client: rc}
}

// instrument adds the request id, logs and records metrics for every request.
type instrument struct {
	next http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t instrument) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, id)
	}

	route := routeLabel(req.URL.Path)
	start := time.Now()

	resp, err := t.next.RoundTrip(req)

	elapsed := time.Since(start)
	status := statusLabel(resp, err)

	requestsTotal.WithLabelValues(req.Method, route, status).Inc()
	requestDuration.WithLabelValues(req.Method, route).Observe(elapsed.Seconds())

	log.Debug().
		Str("requestID", id).
		Str("method", req.Method).
		Str("route", route).
		Str("status", status).
		Dur("elapsed", elapsed).
		Msg("backend request")

	return resp, err //nolint:wrapcheck
}

// storeTokenSource reads the bearer token from a session store on every request,
// so a cleared store takes effect immediately.
type storeTokenSource struct {
	store session.Store
}

// Token implements oauth2.TokenSource.
func (s storeTokenSource) Token() (*oauth2.Token, error) {
	tok := s.store.Token()
	if tok == "" {
		return nil, errNoToken
	}

	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
