package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"inference-gateway/gateway/domain"
)

type fakeMetrics struct {
	requests  atomic.Int64
	errors    atomic.Int64
	latencies atomic.Int64
	backendUp atomic.Int64
}

func (m *fakeMetrics) IncRequests()                 { m.requests.Add(1) }
func (m *fakeMetrics) IncErrors()                   { m.errors.Add(1) }
func (m *fakeMetrics) ObserveLatency(time.Duration) { m.latencies.Add(1) }
func (m *fakeMetrics) SetBackendUp(up bool) {
	if up {
		m.backendUp.Store(1)
		return
	}
	m.backendUp.Store(0)
}

type fakeBackend struct {
	generate func(ctx context.Context, req domain.GenerateRequest) domain.Outcome
	health   func(ctx context.Context) (domain.BackendHealth, error)
}

func (b fakeBackend) Generate(ctx context.Context, req domain.GenerateRequest) domain.Outcome {
	return b.generate(ctx, req)
}

func (b fakeBackend) Health(ctx context.Context) (domain.BackendHealth, error) {
	return b.health(ctx)
}

type recordingStats struct {
	mu     sync.Mutex
	events []domain.OutcomeEvent
	err    error
}

func (s *recordingStats) Record(_ context.Context, ev domain.OutcomeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingStats) snapshot() []domain.OutcomeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OutcomeEvent(nil), s.events...)
}

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }
