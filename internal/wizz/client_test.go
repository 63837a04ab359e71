package wizz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aycf/internal/config"
	"aycf/internal/model"
)

const (
	sessionUUID = "b128d7ef-d1e5-4b7a-aa5e-6e66fc5e4e73"
	okBody      = `{"flightsOutbound":[{
		"flightCode":"W6 5042","carrierText":"Wizz Air Abu Dhabi",
		"departureStation":"AUH","arrivalStation":"AMM",
		"departureStationText":"Abu Dhabi","arrivalStationText":"Amman",
		"departureDate":"2025-04-13T06:25:00","arrivalDate":"2025-04-13T08:50:00",
		"departureOffsetText":"UTC +4","arrivalOffsetText":"UTC +3",
		"duration":"3h 25m","price":9.99,"currency":"EUR"}]}`
)

func testConfig(baseURL string) config.WizzConfig {
	return config.WizzConfig{
		BaseURL:        baseURL,
		Language:       "de",
		SessionUUID:    sessionUUID,
		XSRFToken:      "token-1",
		LaravelSession: "session-1",
		UserAgent:      "aycf-test",
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RatePerMinute:  6000,
		Burst:          100,
	}
}

func TestNewClientRequiresSession(t *testing.T) {
	_, err := NewClient(config.WizzConfig{BaseURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/de/w6/subscriptions/json/availability/"+sessionUUID, r.URL.Path)
		assert.Equal(t, "token-1", r.Header.Get("X-XSRF-TOKEN"))
		assert.Equal(t, "aycf-test", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Referer"), "/de/w6/subscriptions/availability/"+sessionUUID)
		ck, err := r.Cookie("laravel_session")
		require.NoError(t, err)
		assert.Equal(t, "session-1", ck.Value)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "OW", payload["flightType"])
		assert.Equal(t, "AUH", payload["origin"])
		assert.Equal(t, "AMM", payload["destination"])
		assert.Equal(t, "2025-04-13", payload["departure"])
		assert.Contains(t, payload, "arrival")
		assert.Nil(t, payload["arrival"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	c, err := NewClient(testConfig(srv.URL), WithMetrics(m))
	require.NoError(t, err)

	seg := model.NewSegment("AUH", "AMM")
	flights, err := c.Availability(context.Background(), seg, "2025-04-13")
	require.NoError(t, err)
	require.Len(t, flights, 1)

	f := flights[0]
	assert.Equal(t, seg.Hash, f.SegmentHash)
	assert.Equal(t, "W6 5042", f.FlightCode)
	assert.Equal(t, "Wizz Air Abu Dhabi", f.Carrier)
	assert.Equal(t, "Amman", f.Arrival.City)
	assert.Equal(t, time.Date(2025, 4, 13, 2, 25, 0, 0, time.UTC), f.Departure.Time.UTC())
	assert.Equal(t, "UTC+4", f.Departure.Timezone)
	assert.Equal(t, 3*time.Hour+25*time.Minute, f.Duration)
	assert.Equal(t, "9.99", f.Price)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("available")))
}

func TestAvailabilityBadRequestMeansNoFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"flightsOutbound":[],"message":"no flights"}`))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)
	flights, err := c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestAvailabilityRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)
	flights, err := c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")
	require.NoError(t, err)
	assert.Len(t, flights, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAvailabilityGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)
	_, err = c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")

	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusInternalServerError, status.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestAvailabilityRefreshesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/de/w6/subscriptions/availability/"+sessionUUID, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "token%3D2", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/de/w6/subscriptions/json/availability/"+sessionUUID, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-XSRF-TOKEN") != "token=2" {
			w.WriteHeader(419)
			return
		}
		_, _ = w.Write([]byte(okBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)
	flights, err := c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")
	require.NoError(t, err)
	assert.Len(t, flights, 1)
}

func TestAvailabilitySessionExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)
	_, err = c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestAvailabilityCircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	c, err := NewClient(cfg, WithBreaker(2, time.Hour))
	require.NoError(t, err)

	seg := model.NewSegment("AUH", "AMM")
	for i := 0; i < 2; i++ {
		_, err = c.Availability(context.Background(), seg, "2025-04-13")
		require.Error(t, err)
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err = c.Availability(context.Background(), seg, "2025-04-13")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAvailabilityCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Hour))
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Availability(ctx, model.NewSegment("AUH", "AMM"), "2025-04-13")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAvailabilityRetriesWaitForLimiter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RatePerMinute = 1
	cfg.Burst = 1
	cfg.MaxRetries = 3
	c, err := NewClient(cfg, WithBackoff(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = c.Availability(ctx, model.NewSegment("AUH", "AMM"), "2025-04-13")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "closed", c.BreakerState())
}

func TestSessionRefreshWaitsForLimiter(t *testing.T) {
	var pageLoads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/de/w6/subscriptions/availability/"+sessionUUID, func(w http.ResponseWriter, r *http.Request) {
		pageLoads.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/de/w6/subscriptions/json/availability/"+sessionUUID, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(419)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RatePerMinute = 1
	cfg.Burst = 1
	c, err := NewClient(cfg, WithBackoff(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err = c.Availability(ctx, model.NewSegment("AUH", "AMM"), "2025-04-13")
	require.Error(t, err)
	assert.Equal(t, int32(0), pageLoads.Load())
}

func TestAvailabilityHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), WithBackoff(time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	flights, err := c.Availability(context.Background(), model.NewSegment("AUH", "AMM"), "2025-04-13")
	require.NoError(t, err)
	assert.Len(t, flights, 1)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2025, 4, 13, 10, 0, 0, 0, time.UTC)
	resp := func(code int, v string) *http.Response {
		r := &http.Response{StatusCode: code, Header: http.Header{}}
		if v != "" {
			r.Header.Set("Retry-After", v)
		}
		return r
	}

	assert.Equal(t, 30*time.Second, retryAfter(resp(http.StatusTooManyRequests, "30"), now))
	assert.Equal(t, 2*time.Minute, retryAfter(resp(http.StatusServiceUnavailable, now.Add(2*time.Minute).Format(http.TimeFormat)), now))
	assert.Equal(t, maxRetryAfter, retryAfter(resp(http.StatusTooManyRequests, "86400"), now))
	assert.Zero(t, retryAfter(resp(http.StatusTooManyRequests, ""), now))
	assert.Zero(t, retryAfter(resp(http.StatusTooManyRequests, "soon"), now))
	assert.Zero(t, retryAfter(resp(http.StatusInternalServerError, "30"), now))
}

func TestBreakerHalfOpenAdmitsOneTrial(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker(1, time.Minute)
	b.now = func() time.Time { return now }
	_ = b.execute(func() error { return assert.AnError })
	now = now.Add(2 * time.Minute)

	trialStarted := make(chan struct{})
	finishTrial := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.execute(func() error {
			close(trialStarted)
			<-finishTrial
			return nil
		})
	}()
	<-trialStarted

	assert.Equal(t, stateHalfOpen, b.current())
	assert.ErrorIs(t, b.execute(func() error { return nil }), ErrCircuitOpen)

	close(finishTrial)
	require.NoError(t, <-done)
	assert.Equal(t, stateClosed, b.current())
	assert.NoError(t, b.execute(func() error { return nil }))
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	b := newBreaker(2, time.Minute)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.execute(func() error { return context.Canceled }), context.Canceled)
		assert.ErrorIs(t, b.execute(func() error { return context.DeadlineExceeded }), context.DeadlineExceeded)
	}
	assert.Equal(t, stateClosed, b.current())

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	_ = b.execute(func() error { return assert.AnError })
	_ = b.execute(func() error { return assert.AnError })
	require.Equal(t, stateOpen, b.current())

	// a cancelled trial frees the slot for the next caller
	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, b.execute(func() error { return context.Canceled }), context.Canceled)
	assert.Equal(t, stateHalfOpen, b.current())
	assert.NoError(t, b.execute(func() error { return nil }))
	assert.Equal(t, stateClosed, b.current())
}

func TestBreakerHalfOpen(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBreaker(1, time.Minute)
	b.now = func() time.Time { return now }

	_ = b.execute(func() error { return assert.AnError })
	assert.Equal(t, stateOpen, b.current())
	assert.ErrorIs(t, b.execute(func() error { return nil }), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, b.execute(func() error { return nil }))
	assert.Equal(t, stateClosed, b.current())
}

func TestLocalTimeFallbackFields(t *testing.T) {
	o := outboundFlight{
		FlightCode:          "W6 2201",
		DepartureDate:       "2025-04-13",
		Departure:           "09:30",
		ArrivalDate:         "2025-04-13",
		Arrival:             "11:00",
		DepartureOffsetText: "UTC +2",
		ArrivalOffsetText:   "UTC +1",
	}
	f, err := o.toChecked(model.NewSegment("BUD", "LTN"), "2025-04-13")
	require.NoError(t, err)
	assert.Equal(t, "BUD", f.Departure.Code)
	assert.Equal(t, "LTN", f.Arrival.Code)
	assert.Equal(t, 2*time.Hour+30*time.Minute, f.Duration)

	o.DepartureDate = "13/04/2025"
	_, err = o.toChecked(model.NewSegment("BUD", "LTN"), "2025-04-13")
	assert.Error(t, err)
}
