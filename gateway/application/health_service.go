package application

import (
	"context"

	"inference-gateway/gateway/domain"

	"go.uber.org/zap"
)

const backendStatusUnknown = "unknown"

// HealthService monta o relatório de /healthz.
//
// Nunca passa pelo portão de admissão e nunca falha: qualquer erro do backend
// vira backendStatus "unknown".
type HealthService struct {
	Backend domain.Backend
	Metrics domain.Metrics
	Log     *zap.Logger
}

func (s HealthService) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{Status: "ok", BackendStatus: backendStatusUnknown}

	h, err := s.Backend.Health(ctx)
	if err != nil {
		s.logger().Error("backend_health_check_failed", zap.Error(err))
	} else if h.Status != "" {
		report.BackendStatus = h.Status
	}

	if report.BackendStatus == "ok" {
		report.BackendUp = 1
	}
	if s.Metrics != nil {
		s.Metrics.SetBackendUp(report.BackendUp == 1)
	}
	return report
}

func (s HealthService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
