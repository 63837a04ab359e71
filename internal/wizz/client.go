// Package wizz calls the AYCF availability endpoint of the Wizz Air
// multipass site.
package wizz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"aycf/internal/config"
	"aycf/internal/logging"
	"aycf/internal/model"
)

const (
	xsrfCookie    = "XSRF-TOKEN"
	sessionCookie = "laravel_session"
)

var (
	// ErrSessionExpired means the configured session was rejected and could not be refreshed.
	ErrSessionExpired = errors.New("availability session expired")
	// ErrNotConfigured means no session UUID is configured.
	ErrNotConfigured = errors.New("availability session not configured")
)

// maxRetryAfter caps how long a 429 Retry-After may hold a worker.
const maxRetryAfter = 5 * time.Minute

// StatusError is an unexpected HTTP status from the endpoint.
type StatusError struct {
	Code int
	Body string
	// RetryAfter is the server's requested pause on 429 and 503 responses.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("availability endpoint returned %d: %s", e.Code, e.Body)
}

// Client checks AYCF seat availability for a single segment and date.
type Client struct {
	cfg     config.WizzConfig
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker
	metrics *Metrics
	logger  zerolog.Logger
	backoff time.Duration

	mu   sync.Mutex
	xsrf string
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the underlying round tripper. It is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = otelhttp.NewTransport(rt) }
}

// WithMetrics records call outcomes.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
		c.breaker.onChange = m.setState
	}
}

// WithBackoff sets the first retry delay. Later retries double it.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithBreaker overrides the circuit breaker threshold and reset timeout.
func WithBreaker(threshold int, reset time.Duration) Option {
	return func(c *Client) {
		onChange := c.breaker.onChange
		c.breaker = newBreaker(threshold, reset)
		c.breaker.onChange = onChange
	}
}

// NewClient builds a client seeded with the configured session cookies.
func NewClient(cfg config.WizzConfig, opts ...Option) (*Client, error) {
	if cfg.SessionUUID == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	var cookies []*http.Cookie
	if cfg.XSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: xsrfCookie, Value: cfg.XSRFToken, Path: "/"})
	}
	if cfg.LaravelSession != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookie, Value: cfg.LaravelSession, Path: "/"})
	}
	jar.SetCookies(base, cookies)

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 80
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
		breaker: newBreaker(5, time.Minute),
		logger:  logging.WithComponent("wizz"),
		backoff: 2 * time.Second,
		xsrf:    cfg.XSRFToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) availabilityURL() string {
	return fmt.Sprintf("%s/%s/w6/subscriptions/json/availability/%s", c.base.String(), c.cfg.Language, c.cfg.SessionUUID)
}

func (c *Client) refererURL() string {
	return fmt.Sprintf("%s/%s/w6/subscriptions/availability/%s", c.base.String(), c.cfg.Language, c.cfg.SessionUUID)
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.xsrf
}

// Availability returns the AYCF flights for segment s on date (YYYY-MM-DD).
// An empty slice means no seats.
func (c *Client) Availability(ctx context.Context, s model.Segment, date string) ([]model.CheckedFlight, error) {
	var flights []model.CheckedFlight
	err := c.breaker.execute(func() error {
		var err error
		flights, err = c.availabilityWithRetry(ctx, s, date)
		return err
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		c.metrics.observe("circuit_open")
	case err != nil:
		c.metrics.observe("error")
	case len(flights) == 0:
		c.metrics.observe("empty")
	default:
		c.metrics.observe("available")
	}
	return flights, err
}

func (c *Client) availabilityWithRetry(ctx context.Context, s model.Segment, date string) ([]model.CheckedFlight, error) {
	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	var lastErr error
	delay := c.backoff
	wait := time.Duration(0)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if wait < delay {
				wait = delay
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			delay *= 2
			wait = 0
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		flights, err := c.availabilityOnce(ctx, s, date)
		if err == nil {
			return flights, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var status *StatusError
		if errors.As(err, &status) && status.RetryAfter > 0 {
			wait = status.RetryAfter
		}
		if errors.As(err, &status) && (status.Code == http.StatusUnauthorized || status.Code == 419) {
			if rerr := c.refreshSession(ctx); rerr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.logger.Warn().Err(rerr).Str("event", "wizz.session_refresh_failed").Msg("session refresh failed")
				lastErr = fmt.Errorf("%w: %v", ErrSessionExpired, err)
			}
		}
		c.logger.Warn().
			Err(err).
			Str("origin", s.Origin).
			Str("destination", s.Destination).
			Str("date", date).
			Int("attempt", attempt+1).
			Msg("availability request failed")
	}
	return nil, lastErr
}

func (c *Client) availabilityOnce(ctx context.Context, s model.Segment, date string) ([]model.CheckedFlight, error) {
	body, err := json.Marshal(availabilityRequest{
		FlightType:  "OW",
		Origin:      s.Origin,
		Destination: s.Destination,
		Departure:   date,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.availabilityURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.base.String())
	req.Header.Set("Referer", c.refererURL())
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if tok := c.token(); tok != "" {
		req.Header.Set("X-XSRF-TOKEN", tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("availability request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// 400 carries a JSON body without flights.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Body:       snippet,
			RetryAfter: retryAfter(resp, time.Now()),
		}
	}

	var parsed availabilityResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	flights := make([]model.CheckedFlight, 0, len(parsed.FlightsOutbound))
	for _, o := range parsed.FlightsOutbound {
		f, err := o.toChecked(s, date)
		if err != nil {
			c.logger.Warn().Err(err).Str("segment", s.Origin+"-"+s.Destination).Msg("skipping unparsable flight")
			continue
		}
		flights = append(flights, f)
	}
	return flights, nil
}

// wait blocks for a limiter token. Every upstream request spends one,
// retries and session refreshes included.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// the next token is due after the deadline
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

// retryAfter reads Retry-After from 429 and 503 responses, either as
// seconds or as an HTTP date.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	if d <= 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

// refreshSession loads the availability page so the server sets a fresh
// XSRF-TOKEN cookie, then uses it for subsequent requests.
func (c *Client) refreshSession(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.refererURL(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("load availability page: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode}
	}

	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name != xsrfCookie {
			continue
		}
		tok, err := url.QueryUnescape(ck.Value)
		if err != nil {
			tok = ck.Value
		}
		c.mu.Lock()
		changed := tok != c.xsrf
		c.xsrf = tok
		c.mu.Unlock()
		if !changed {
			return ErrSessionExpired
		}
		c.logger.Info().Str("event", "wizz.session_refreshed").Msg("availability session token refreshed")
		return nil
	}
	return ErrSessionExpired
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (c *Client) BreakerState() string { return string(c.breaker.current()) }
