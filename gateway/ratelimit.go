package gateway

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"inference-gateway/gateway/application"
	"inference-gateway/gateway/domain"

	"go.uber.org/zap"
)

type RateLimitOptions struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Log                 *zap.Logger
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// RateLimit barra clientes acima do token bucket com 429 antes de chegarem ao
// portão de admissão. Store nil desliga o middleware.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc("", false)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	svc := application.RateLimitService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddRateLimitHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", strconv.FormatFloat(ri.RPS(), 'f', -1, 64))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			dec := svc.Decide(domain.Key(key))
			if dec.Allowed {
				next.ServeHTTP(w, withClientKey(r, key))
				return
			}

			opts.Log.Warn("rate_limited", zap.String("key", key), zap.String("path", r.URL.Path))
			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.OutcomeEvent{
					Outcome:    domain.OutcomeRateLimited,
					StatusCode: http.StatusTooManyRequests,
					Key:        domain.Key(key),
					Method:     r.Method,
					Path:       r.URL.Path,
					At:         time.Now(),
				}); err != nil {
					opts.Log.Debug("outcome_stats_failed", zap.Error(err))
				}
			}

			// arredonda para cima: "0" mandaria o cliente repetir na hora
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(dec.RetryAfter.Seconds()))))
			writeDetail(w, http.StatusTooManyRequests, "rate limit exceeded")
		})
	}
}

type clientKeyCtx struct{}

// withClientKey guarda a chave já calculada para o handler de /generate reaproveitar.
func withClientKey(r *http.Request, key string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), clientKeyCtx{}, key))
}

func clientKeyFrom(r *http.Request) (string, bool) {
	key, ok := r.Context().Value(clientKeyCtx{}).(string)
	return key, ok
}
