package application

import (
	"context"
	"fmt"
	"time"

	"inference-gateway/gateway/domain"

	"go.uber.org/zap"
)

const statsTimeout = 500 * time.Millisecond

// RequestMeta carrega o que o adapter HTTP sabe sobre a requisição e que só
// interessa às estatísticas.
type RequestMeta struct {
	Key    domain.Key
	Method string
	Path   string
}

// ForwardService é o núcleo do gateway: conta a requisição, adquire uma vaga,
// encaminha ao backend e registra latência/erro exatamente uma vez.
type ForwardService struct {
	Backend domain.Backend
	Pool    domain.SlotPool
	Metrics domain.Metrics
	Stats   domain.StatsStore
	Log     *zap.Logger
}

// Generate nunca devolve erro: toda falha vira um Outcome.
// Um panic no caminho do backend é recuperado como TransportFailure depois que
// a vaga já foi devolvida pelo WithSlot.
func (s ForwardService) Generate(ctx context.Context, req domain.GenerateRequest, meta RequestMeta) (out domain.Outcome) {
	start := time.Now()
	s.metrics().IncRequests()

	defer func() {
		if r := recover(); r != nil {
			out = domain.TransportFailure(fmt.Errorf("panic while forwarding: %v", r))
		}
		s.finish(ctx, req, meta, out, time.Since(start))
	}()

	res, err := WithSlot(ctx, s.Pool, func(ctx context.Context) domain.Outcome {
		return s.Backend.Generate(ctx, req)
	})
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("waiting for admission slot: %w", err))
	}
	return res
}

func (s ForwardService) finish(ctx context.Context, req domain.GenerateRequest, meta RequestMeta, out domain.Outcome, elapsed time.Duration) {
	m := s.metrics()
	m.ObserveLatency(elapsed)
	if !out.IsSuccess() {
		m.IncErrors()
	}

	log := s.logger().With(
		zap.Int("prompts", len(req.Prompts)),
		zap.Duration("latency", elapsed),
	)
	switch out.Kind {
	case domain.OutcomeSuccess:
		log.Debug("generate_ok")
	case domain.OutcomeClientError:
		log.Warn("backend_rejected", zap.Int("backend_status", out.StatusCode))
	case domain.OutcomeUpstreamError:
		log.Error("backend_error", zap.Int("backend_status", out.StatusCode), zap.Error(out.Err))
	default:
		log.Error("gateway_forward_failed", zap.Error(out.Err))
	}

	if s.Stats == nil {
		return
	}
	// a requisição pode já ter sido cancelada; a estatística ainda deve ser gravada
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
	defer cancel()
	err := s.Stats.Record(sctx, domain.OutcomeEvent{
		Outcome:    out.Kind.String(),
		StatusCode: out.StatusCode,
		Prompts:    len(req.Prompts),
		Latency:    elapsed,
		Key:        meta.Key,
		Method:     meta.Method,
		Path:       meta.Path,
		At:         time.Now(),
	})
	if err != nil {
		s.logger().Debug("outcome_stats_failed", zap.Error(err))
	}
}

func (s ForwardService) metrics() domain.Metrics {
	if s.Metrics == nil {
		return nopMetrics{}
	}
	return s.Metrics
}

// nopMetrics descarta tudo; usado quando nenhum Metrics foi injetado.
type nopMetrics struct{}

func (nopMetrics) IncRequests()                 {}
func (nopMetrics) IncErrors()                   {}
func (nopMetrics) ObserveLatency(time.Duration) {}
func (nopMetrics) SetBackendUp(bool)            {}

func (s ForwardService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
