package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(limit int, window time.Duration) *gin.Engine {
	rl := NewRateLimiter(limit, window)

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRateLimiterEnforcesLimit(t *testing.T) {
	r := limitedRouter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d", i+1, w.Code)
		}
	}

	w := hit(r, "10.0.0.1:1234")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", w.Code)
	}

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))

	if err != nil {
		t.Fatalf("Retry-After not an integer: %q", w.Header().Get("Retry-After"))
	}
	if retryAfter < 0 || retryAfter > 60 {
		t.Fatalf("Retry-After out of range: %d", retryAfter)
	}
}

func TestRateLimiterWindowRollover(t *testing.T) {
	r := limitedRouter(1, 30*time.Millisecond)

	if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("first request: got status %d", w.Code)
	}
	if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got status %d, want 429", w.Code)
	}

	time.Sleep(50 * time.Millisecond)

	if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("after window rollover: got status %d", w.Code)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	r := limitedRouter(1, time.Minute)

	if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client: got status %d", w.Code)
	}
	if w := hit(r, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client not limited: got status %d", w.Code)
	}

	// a different IP has its own bucket
	if w := hit(r, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("second client: got status %d", w.Code)
	}
}
