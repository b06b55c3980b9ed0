package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, rules ...Rule) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 26, 9, 0, 0, 0, time.UTC)}
	l := NewLimiter(&Config{
		Enabled:   true,
		Default:   Rule{Limit: 0},
		Rules:     rules,
		Allow:     map[string]bool{"10.0.0.1": true},
		Deny:      map[string]bool{"10.0.0.2": true},
		IdleAfter: time.Hour,
	})
	l.now = clock.now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestLimiter_BurstAndRefill(t *testing.T) {
	l, clock := newTestLimiter(t, Rule{Method: http.MethodPost, Prefix: "/v1/documents", Limit: 60, Window: time.Minute, Burst: 3})

	for i := 0; i < 3; i++ {
		d := l.Allow("1.2.3.4", http.MethodPost, "/v1/documents")
		require.True(t, d.Allowed, "request %d", i+1)
	}
	d := l.Allow("1.2.3.4", http.MethodPost, "/v1/documents")
	assert.False(t, d.Allowed)
	assert.Equal(t, 60, d.Limit)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	// one token per second
	clock.advance(time.Second)
	assert.True(t, l.Allow("1.2.3.4", http.MethodPost, "/v1/documents").Allowed)
	assert.False(t, l.Allow("1.2.3.4", http.MethodPost, "/v1/documents").Allowed)

	// other clients have their own bucket
	assert.True(t, l.Allow("5.6.7.8", http.MethodPost, "/v1/documents").Allowed)
}

func TestLimiter_AllowDenyAndUnlimited(t *testing.T) {
	l, _ := newTestLimiter(t, Rule{Method: http.MethodPost, Prefix: "/v1/documents", Limit: 1, Window: time.Hour})

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("10.0.0.1", http.MethodPost, "/v1/documents").Allowed)
	}
	assert.False(t, l.Allow("10.0.0.2", http.MethodGet, "/health").Allowed)
	// default rule has no limit
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("1.2.3.4", http.MethodGet, "/v1/runs").Allowed)
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false, Deny: map[string]bool{"1.2.3.4": true}})
	defer l.Stop()
	assert.True(t, l.Allow("1.2.3.4", http.MethodPost, "/v1/documents").Allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	l, clock := newTestLimiter(t, Rule{Method: http.MethodPost, Prefix: "/v1", Limit: 10, Window: time.Minute})
	l.Allow("1.2.3.4", http.MethodPost, "/v1/consolidate")
	require.Len(t, l.buckets, 1)

	clock.advance(2 * time.Hour)
	l.sweep()
	assert.Empty(t, l.buckets)
}

func TestConfig_Match(t *testing.T) {
	cfg := LoadConfig(func(string) string { return "" })

	assert.Equal(t, 0, cfg.Match(http.MethodGet, "/health").Limit)
	assert.Equal(t, "/v1/documents", cfg.Match(http.MethodPost, "/v1/documents").Prefix)
	assert.Equal(t, 600, cfg.Match(http.MethodGet, "/v1/runs").Limit)
}

func TestLoadConfig_Env(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_ENABLED":        "false",
		"RATE_LIMIT_DEFAULT_LIMIT":  "50",
		"RATE_LIMIT_DEFAULT_WINDOW": "30s",
		"RATE_LIMIT_WHITELIST":      " 10.0.0.1 , 10.0.0.3",
	}
	cfg := LoadConfig(func(k string) string { return env[k] })

	assert.False(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.Default.Limit)
	assert.Equal(t, 30*time.Second, cfg.Default.Window)
	assert.True(t, cfg.Allow["10.0.0.3"])
	assert.Empty(t, cfg.Deny)
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(t, Rule{Method: http.MethodPost, Prefix: "/v1/documents", Limit: 1, Window: time.Hour})
	handler := l.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/documents", nil)
		req.RemoteAddr = "1.2.3.4:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := send()
	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := send()
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate limit exceeded")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4242"
	assert.Equal(t, "192.168.1.9", ClientIP(req))
	req.RemoteAddr = "bogus"
	assert.Equal(t, "bogus", ClientIP(req))
}
