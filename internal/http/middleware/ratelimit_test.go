package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRateLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limiter.Handler())
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	router := newRateLimitedRouter(NewRateLimiter(5, time.Minute))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimiterRejectsOverBudget(t *testing.T) {
	router := newRateLimitedRouter(NewRateLimiter(3, time.Hour))

	var last int
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		router.ServeHTTP(w, req)
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestRateLimiterTracksClientsSeparately(t *testing.T) {
	router := newRateLimitedRouter(NewRateLimiter(1, time.Hour))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(first, req)

	blocked := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(blocked, req)

	other := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	router.ServeHTTP(other, req)

	if first.Code != http.StatusOK {
		t.Fatalf("first client first request: got %d, want %d", first.Code, http.StatusOK)
	}
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: got %d, want %d", blocked.Code, http.StatusTooManyRequests)
	}
	if other.Code != http.StatusOK {
		t.Fatalf("second client: got %d, want %d", other.Code, http.StatusOK)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute)
	base := time.Now()
	limiter.now = func() time.Time { return base }

	for i := 0; i < 1030; i++ {
		limiter.allow(testIP(i))
	}
	limiter.now = func() time.Time { return base.Add(rateLimitIdleEviction + time.Minute) }
	limiter.allow("10.9.9.9")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.clients[testIP(0)]; ok {
		t.Fatal("expected idle client to be evicted")
	}
}

func testIP(i int) string {
	return fmt.Sprintf("172.16.%d.%d", i/256, i%256)
}
