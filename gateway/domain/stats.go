package domain

import (
	"context"
	"time"
)

// OutcomeRateLimited rotula requisições barradas pelo rate limit antes do portão.
const OutcomeRateLimited = "rate_limited"

// OutcomeEvent é o registro estatístico de uma requisição a /generate.
//
// Outcome usa os rótulos de OutcomeKind.String() ou OutcomeRateLimited.
// Cuidado com cardinalidade: Key só é persistida quando o store rastreia chaves.
type OutcomeEvent struct {
	Outcome    string
	StatusCode int
	Prompts    int
	Latency    time.Duration

	Key    Key
	Method string
	Path   string

	At time.Time
}

// StatsStore persiste estatísticas por resultado (Redis, memória, ...).
// Quem chama trata erro como best-effort: nunca derruba a requisição.
type StatsStore interface {
	Record(ctx context.Context, ev OutcomeEvent) error
}
