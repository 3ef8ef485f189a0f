package infra

import (
	"context"
	"sync"

	"inference-gateway/gateway/domain"
)

// MemoryStatsStore é uma implementação simples em memória, usada em testes e
// quando o Redis está desabilitado. Não faz expiração.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   map[string]int64
	byRoute map[string]map[string]int64
	byKey   map[string]map[string]int64

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

var _ domain.StatsStore = (*MemoryStatsStore)(nil)

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		total:   make(map[string]int64),
		byRoute: make(map[string]map[string]int64),
		byKey:   make(map[string]map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.OutcomeEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total[ev.Outcome]++
	incr(s.byRoute, route, ev.Outcome)
	if s.trackKeys && ev.Key != "" {
		incr(s.byKey, string(ev.Key), ev.Outcome)
	}
	return nil
}

func incr(m map[string]map[string]int64, k, outcome string) {
	c, ok := m[k]
	if !ok {
		c = make(map[string]int64)
		m[k] = c
	}
	c[outcome]++
}

// Total devolve uma cópia dos contadores por resultado.
func (s *MemoryStatsStore) Total() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounts(s.total)
}

func (s *MemoryStatsStore) ByRoute(route string) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounts(s.byRoute[route])
}

func (s *MemoryStatsStore) ByKey(key string) map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCounts(s.byKey[key])
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
