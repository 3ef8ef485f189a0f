package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inference-gateway/gateway/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimit_AllowsThenRejectsSameKey(t *testing.T) {
	store := infra.NewLimiterStore(0.02, 1)
	stats := infra.NewMemoryStatsStore()

	calls := 0
	var seenKey string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		seenKey, _ = clientKeyFrom(r)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := RateLimit(RateLimitOptions{
		Store:               store,
		Stats:               stats,
		RetryAfter:          time.Second,
		AddRateLimitHeaders: true,
	})(next)

	r1 := httptest.NewRequest(http.MethodPost, "http://example/generate", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	require.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "10.0.0.1", w1.Header().Get("X-RateLimit-Key"))
	assert.Equal(t, "0.02", w1.Header().Get("X-RateLimit-RPS"))
	assert.Equal(t, "1", w1.Header().Get("X-RateLimit-Burst"))
	assert.Equal(t, "10.0.0.1", seenKey)

	r2 := httptest.NewRequest(http.MethodPost, "http://example/generate", nil)
	r2.RemoteAddr = "10.0.0.1:1234"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.Equal(t, "1", w2.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"detail":"rate limit exceeded"}`, w2.Body.String())

	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]int64{"rate_limited": 1}, stats.Total())
}

func TestRateLimit_KeyByHeader(t *testing.T) {
	store := infra.NewLimiterStore(0.02, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	h := RateLimit(RateLimitOptions{
		Store: store,
		KeyFn: DefaultKeyFunc("X-Api-Key", false),
	})(next)

	// cada chave tem seu próprio limiter
	for _, key := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodPost, "http://example/generate", nil)
		r.Header.Set("X-Api-Key", key)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, "key %s", key)
	}
	assert.Equal(t, 2, store.Len())
}

func TestRateLimit_RetryAfterRoundsUpToWholeSeconds(t *testing.T) {
	tests := []struct {
		retryAfter time.Duration
		want       string
	}{
		{retryAfter: 500 * time.Millisecond, want: "1"},
		{retryAfter: time.Second, want: "1"},
		{retryAfter: 2500 * time.Millisecond, want: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.retryAfter.String(), func(t *testing.T) {
			store := infra.NewLimiterStore(0.02, 1)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			h := RateLimit(RateLimitOptions{Store: store, RetryAfter: tt.retryAfter})(next)

			var w *httptest.ResponseRecorder
			for i := 0; i < 2; i++ {
				r := httptest.NewRequest(http.MethodPost, "http://example/generate", nil)
				r.RemoteAddr = "10.0.0.1:1234"
				w = httptest.NewRecorder()
				h.ServeHTTP(w, r)
			}
			require.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, tt.want, strings.TrimSpace(w.Header().Get("Retry-After")))
		})
	}
}

func TestRateLimit_NilStoreIsPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := RateLimit(RateLimitOptions{})(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/generate", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
