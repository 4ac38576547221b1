// Package httpclient implements the request execution pipeline every
// venue driver issues REST calls through: correlation IDs, a circuit
// breaker gate, retriable attempts with exponential backoff (jittered
// when Config.Jitter is set), and typed error classification. Grounded on the resty-based client in
// the Polymarket driver, generalized to the full retry/backoff/metrics
// contract.
package httpclient

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mexoms/perpunify/pkg/breaker"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

// retryableStatuses are the HTTP statuses the pipeline retries on,
// per spec.md §4.5 step 3d.
var retryableStatuses = map[int]bool{
	408: true, 429: true, 500: true, 502: true, 503: true, 504: true,
}

// Observer receives per-attempt metrics. Satisfied structurally by
// pkg/metrics.Observer; the client never imports pkg/metrics directly.
type Observer interface {
	RecordRequest(venueID, endpoint string)
	RecordSuccess(venueID, endpoint string, latency time.Duration)
	RecordFailure(venueID, endpoint string, latency time.Duration, kind xerrors.Kind)
	RecordRateLimitHit(venueID, endpoint string)
}

type noopObserver struct{}

func (noopObserver) RecordRequest(string, string)                            {}
func (noopObserver) RecordSuccess(string, string, time.Duration)             {}
func (noopObserver) RecordFailure(string, string, time.Duration, xerrors.Kind) {}
func (noopObserver) RecordRateLimitHit(string, string)                       {}

// Config configures a Client.
type Config struct {
	VenueID        string
	BaseURL        string
	Timeout        time.Duration // per-request timeout, default 30s
	MaxAttempts    int           // default 3
	InitialDelay   time.Duration // default 200ms
	MaxDelay       time.Duration // default 5s
	BackoffFactor  float64       // default 2.0
	Jitter         bool          // default false (no jitter)
	Breaker        *breaker.Breaker
	Observer       Observer
	Logger         *logrus.Entry
}

// Client is the venue-agnostic HTTP request pipeline. Each driver
// constructs one bound to its own base URL and breaker.
type Client struct {
	http    *resty.Client
	venue   string
	breaker *breaker.Breaker
	obs     Observer
	log     *logrus.Entry

	maxAttempts   int
	initialDelay  time.Duration
	maxDelay      time.Duration
	backoffFactor float64
	jitter        bool
}

// New constructs a Client from cfg, defaulting Timeout to 30s,
// MaxAttempts to 3, InitialDelay to 200ms, MaxDelay to 5s, and
// BackoffFactor to 2.0.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = 200 * time.Millisecond
	}
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	factor := cfg.BackoffFactor
	if factor <= 0 {
		factor = 2.0
	}
	obs := cfg.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	rc := resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(timeout)

	return &Client{
		http:          rc,
		venue:         cfg.VenueID,
		breaker:       cfg.Breaker,
		obs:           obs,
		log:           log,
		maxAttempts:   maxAttempts,
		initialDelay:  initialDelay,
		maxDelay:      maxDelay,
		backoffFactor: factor,
		jitter:        cfg.Jitter,
	}
}

// Request is a single pipeline call's inputs.
type Request struct {
	Method      string
	Path        string
	Endpoint    string // metric/weight bucket name; defaults to Path
	Body        any
	Headers     map[string]string
	QueryParams map[string]string
	Result      any // destination for JSON-decoded response body
}

// Do runs the full pipeline described in spec.md §4.5: correlation id,
// circuit breaker gate, up to MaxAttempts retriable attempts with
// exponential backoff (jittered when Config.Jitter is set), typed error
// classification.
func (c *Client) Do(ctx context.Context, req Request) error {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}
	correlationID := uuid.NewString()
	c.obs.RecordRequest(c.venue, endpoint)

	run := func(ctx context.Context) (any, error) {
		return nil, c.attempt(ctx, req, correlationID, endpoint)
	}

	if c.breaker != nil {
		_, err := c.breaker.Execute(ctx, run)
		if err != nil {
			if xe, ok := xerrors.As(err); ok && xe.Kind == xerrors.CircuitOpen {
				return xerrors.Wrap(xerrors.ExchangeUnavailable, c.venue, "circuit breaker open", xe).WithCorrelationID(correlationID)
			}
			return err
		}
		return nil
	}
	_, err := run(ctx)
	return err
}

func (c *Client) attempt(ctx context.Context, req Request, correlationID, endpoint string) error {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		start := time.Now()

		r := c.http.R().SetContext(ctx).SetHeader("X-Correlation-ID", correlationID)
		for k, v := range req.Headers {
			r = r.SetHeader(k, v)
		}
		for k, v := range req.QueryParams {
			r = r.SetQueryParam(k, v)
		}
		if req.Body != nil {
			r = r.SetBody(req.Body)
		}

		resp, err := r.Execute(req.Method, req.Path)
		latency := time.Since(start)

		if err != nil {
			kind := classifyTransportError(err)
			lastErr = xerrors.Wrap(kind, c.venue, "request failed", err).WithCorrelationID(correlationID)
			c.obs.RecordFailure(c.venue, endpoint, latency, kind)
			if kind.IsRetryable() && attempt < c.maxAttempts-1 {
				c.sleepBackoff(ctx, attempt)
				continue
			}
			return lastErr
		}

		status := resp.StatusCode()
		if status >= 200 && status < 300 {
			if req.Result != nil && len(resp.Body()) > 0 {
				if jerr := json.Unmarshal(resp.Body(), req.Result); jerr != nil {
					lastErr = xerrors.Wrap(xerrors.Unknown, c.venue, "decode response", jerr).WithCorrelationID(correlationID)
					c.obs.RecordFailure(c.venue, endpoint, latency, xerrors.Unknown)
					return lastErr
				}
			}
			c.obs.RecordSuccess(c.venue, endpoint, latency)
			return nil
		}

		kind := classifyStatus(status)
		if kind == xerrors.RateLimit {
			c.obs.RecordRateLimitHit(c.venue, endpoint)
		}
		lastErr = xerrors.New(kind, c.venue, resp.String()).WithCorrelationID(correlationID)
		c.obs.RecordFailure(c.venue, endpoint, latency, kind)

		if retryableStatuses[status] && attempt < c.maxAttempts-1 {
			c.sleepBackoff(ctx, attempt)
			continue
		}
		return lastErr
	}
	return lastErr
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) {
	delay := time.Duration(float64(c.initialDelay) * math.Pow(c.backoffFactor, float64(attempt)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	if c.jitter {
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func classifyStatus(status int) xerrors.Kind {
	switch {
	case status == 408:
		return xerrors.Timeout
	case status == 429:
		return xerrors.RateLimit
	case status >= 500:
		return xerrors.ExchangeUnavailable
	case status == 401 || status == 403:
		return xerrors.InsufficientPermissions
	case status >= 400:
		return xerrors.Validation
	default:
		return xerrors.Unknown
	}
}

func classifyTransportError(err error) xerrors.Kind {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return xerrors.Timeout
	}
	return xerrors.Network
}
