package domain

import "context"

// Backend é o colaborador que executa a geração (processo do modelo).
type Backend interface {
	Generate(ctx context.Context, req GenerateRequest) Outcome
	Health(ctx context.Context) (BackendHealth, error)
}

// BackendHealth é o corpo de GET /healthz do backend.
type BackendHealth struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// HealthReport é o corpo de GET /healthz do gateway.
type HealthReport struct {
	Status        string `json:"status"`
	BackendStatus string `json:"backendStatus"`
	BackendUp     int    `json:"backendUp"`
}
