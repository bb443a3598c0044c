package mw

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/logger"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		pattern string
		want    bool
	}{
		{name: "exact", host: "apps.example.com", pattern: "apps.example.com", want: true},
		{name: "wildcard", host: "admin.example.com", pattern: "*.example.com", want: true},
		{name: "wildcard does not match apex", host: "example.com", pattern: "*.example.com", want: false},
		{name: "different host", host: "evil.com", pattern: "apps.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchHost(tt.host, tt.pattern); got != tt.want {
				t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestLimiterRefill(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	now := time.Now()

	if ok, rem, _ := l.allow("1.2.3.4", now); !ok || rem != 1 {
		t.Fatalf("first request: ok=%v remaining=%d", ok, rem)
	}
	if ok, rem, _ := l.allow("1.2.3.4", now); !ok || rem != 0 {
		t.Fatalf("second request: ok=%v remaining=%d", ok, rem)
	}
	ok, _, retry := l.allow("1.2.3.4", now)
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry != 1 {
		t.Errorf("retry after = %d, want 1", retry)
	}
	if ok, _, _ := l.allow("5.6.7.8", now); !ok {
		t.Error("other clients have their own bucket")
	}
	if ok, _, _ := l.allow("1.2.3.4", now.Add(time.Second)); !ok {
		t.Error("one token refills per second at 60/min")
	}
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Minute})
	now := time.Now()
	l.allow("1.2.3.4", now)
	l.allow("5.6.7.8", now.Add(2*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buckets["1.2.3.4"]; ok {
		t.Error("idle bucket should have been swept")
	}
	if len(l.buckets) != 1 {
		t.Errorf("buckets = %d, want 1", len(l.buckets))
	}
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/apps", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, limiting should be off", i, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/apps", nil))
	if rec.Code != http.StatusNoContent || called {
		t.Errorf("preflight: status %d, handler called %v", rec.Code, called)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("max age = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apps", nil))
	if !called || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("GET: handler called %v, allow origin %q", called, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestAdminOnly(t *testing.T) {
	h := AdminOnly([]string{"10.0.0.0/8", "bogus"}, false, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		remote string
		want   int
	}{
		{remote: "10.1.2.3:5555", want: http.StatusOK},
		{remote: "192.168.1.1:5555", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/apps", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.remote, rec.Code, tt.want)
		}
		if tt.want == http.StatusForbidden {
			var body rejection
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Success || body.Code != CodeForbidden {
				t.Errorf("%s: body %+v, err %v", tt.remote, body, err)
			}
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{" Apps.Example.com ", "*.internal.example"}, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		host string
		want int
	}{
		{host: "apps.example.com", want: http.StatusOK},
		{host: "APPS.example.com:8443", want: http.StatusOK},
		{host: "ops.internal.example", want: http.StatusOK},
		{host: "internal.example", want: http.StatusForbidden},
		{host: "evil.example.com", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/reload", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}
