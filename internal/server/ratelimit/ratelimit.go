// Package ratelimit throttles API clients with per-route token buckets.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Rule limits one method and path prefix
type Rule struct {
	Method string
	Prefix string
	Limit  int           // requests per Window; <= 0 means unlimited
	Window time.Duration
	Burst  int           // bucket capacity; defaults to Limit
}

// Config holds rate limiting configuration
type Config struct {
	Enabled       bool
	Default       Rule
	Rules         []Rule
	Allow         map[string]bool // client IPs never limited
	Deny          map[string]bool // client IPs always rejected
	IdleAfter     time.Duration   // buckets unused this long are dropped
	SweepInterval time.Duration
}

// DefaultRules protects the endpoints that assemble documents; rendering
// with an LLM formatter can call the model once per row.
func DefaultRules() []Rule {
	return []Rule{
		{Method: http.MethodGet, Prefix: "/health", Limit: 0},
		{Method: http.MethodPost, Prefix: "/v1/documents", Limit: 30, Window: time.Minute, Burst: 5},
		{Method: http.MethodPost, Prefix: "/v1/consolidate", Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// LoadConfig reads RATE_LIMIT_* variables through getenv
func LoadConfig(getenv func(string) string) *Config {
	cfg := &Config{
		Enabled:       envBool(getenv, "RATE_LIMIT_ENABLED", true),
		Default:       Rule{Limit: envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", 600), Window: envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", time.Minute)},
		Rules:         DefaultRules(),
		Allow:         ipSet(getenv("RATE_LIMIT_WHITELIST")),
		Deny:          ipSet(getenv("RATE_LIMIT_BLACKLIST")),
		IdleAfter:     time.Hour,
		SweepInterval: envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
	}
	return cfg
}

func envInt(getenv func(string) string, key string, def int) int {
	if n, err := strconv.Atoi(getenv(key)); err == nil {
		return n
	}
	return def
}

func envBool(getenv func(string) string, key string, def bool) bool {
	if b, err := strconv.ParseBool(getenv(key)); err == nil {
		return b
	}
	return def
}

func envDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getenv(key)); err == nil {
		return d
	}
	return def
}

func ipSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}

// Match returns the first rule for method whose prefix matches path,
// falling back to the default rule
func (c *Config) Match(method, path string) Rule {
	for _, r := range c.Rules {
		if r.Method == method && strings.HasPrefix(path, r.Prefix) {
			return r
		}
	}
	return c.Default
}

type bucket struct {
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

func (b *bucket) refill(now time.Time) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
}

// Decision describes the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter tracks one bucket per client and rule
type Limiter struct {
	cfg     *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter and starts its idle-bucket sweeper
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = LoadConfig(func(string) string { return "" })
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.SweepInterval > 0 {
		go l.sweepLoop()
	}
	return l
}

// Allow spends one token of client's bucket for the request route
func (l *Limiter) Allow(client, method, path string) Decision {
	if !l.cfg.Enabled || l.cfg.Allow[client] {
		return Decision{Allowed: true}
	}
	if l.cfg.Deny[client] {
		return Decision{Allowed: false}
	}

	rule := l.cfg.Match(method, path)
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}
	}

	burst := rule.Burst
	if burst <= 0 {
		burst = rule.Limit
	}
	key := client + " " + rule.Method + " " + rule.Prefix

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(burst), capacity: float64(burst), rate: float64(rule.Limit) / rule.Window.Seconds(), last: now}
		l.buckets[key] = b
	}
	b.refill(now)

	d := Decision{Limit: rule.Limit}
	if b.tokens >= 1 {
		b.tokens--
		d.Allowed = true
	} else {
		d.RetryAfter = time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
	}
	d.Remaining = int(b.tokens)
	return d
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.cfg.IdleAfter)
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop ends the sweeper; it is safe to call more than once
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// ClientIP returns the host part of the request's remote address
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Middleware rejects throttled requests with 429 and sets X-RateLimit headers
func (l *Limiter) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientIP(r)
			d := l.Allow(client, r.Method, r.URL.Path)
			if d.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			}
			if !d.Allowed {
				if d.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())+1))
				}
				logger.Warn("rate limit exceeded",
					zap.String("client", client),
					zap.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
