// Package backendstub é um substituto de desenvolvimento para o servidor de
// modelo: mesma superfície HTTP (/, /healthz, /generate, /metrics), com a
// geração plugável.
package backendstub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"inference-gateway/gateway/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Generator produz a saída de um prompt.
type Generator func(ctx context.Context, prompt string) (string, error)

// UpperCase é o gerador padrão.
func UpperCase(_ context.Context, prompt string) (string, error) {
	return strings.ToUpper(prompt), nil
}

type Options struct {
	Model     string
	Generator Generator
	Log       *zap.Logger
}

// Server mantém o estado de prontidão do "modelo".
type Server struct {
	model string
	gen   Generator
	log   *zap.Logger
	ready atomic.Bool

	reg      *prometheus.Registry
	requests prometheus.Counter
	errors   prometheus.Counter
	latency  prometheus.Histogram
}

func New(opts Options) *Server {
	if opts.Model == "" {
		opts.Model = "stub"
	}
	if opts.Generator == nil {
		opts.Generator = UpperCase
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	s := &Server{
		model: opts.Model,
		gen:   opts.Generator,
		log:   opts.Log,
		reg:   prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llm_generate_requests_total",
			Help: "Total LLM generate requests",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llm_generate_errors_total",
			Help: "Total LLM generate errors",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llm_generate_latency_seconds",
			Help:    "Latency of LLM generation in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	s.reg.MustRegister(s.requests, s.errors, s.latency)
	return s
}

func (s *Server) Ready() bool { return s.ready.Load() }

func (s *Server) SetReady(v bool) {
	if s.ready.Swap(v) != v && v {
		s.log.Info("backend_ready", zap.String("model", s.model))
	}
}

// Load simula o carregamento do modelo: fica pronto depois de delay,
// a menos que ctx seja cancelado antes.
func (s *Server) Load(ctx context.Context, delay time.Duration) {
	s.log.Info("initializing_model", zap.String("model", s.model), zap.Duration("delay", delay))
	if delay <= 0 {
		s.SetReady(true)
		return
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		s.SetReady(true)
	case <-ctx.Done():
		s.log.Warn("model_load_aborted", zap.Error(ctx.Err()))
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "backend",
		"model":   s.model,
		"ready":   s.Ready(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.BackendHealth{Status: "ok", Ready: s.Ready()})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompts == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body"})
		return
	}
	if !s.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "LLM not initialized yet"})
		return
	}

	start := time.Now()
	s.requests.Inc()
	defer func() { s.latency.Observe(time.Since(start).Seconds()) }()

	outputs := make([]domain.PromptOutput, 0, len(req.Prompts))
	for _, p := range req.Prompts {
		text, err := s.gen(r.Context(), p)
		if err != nil {
			s.errors.Inc()
			if !errors.Is(err, context.Canceled) {
				s.log.Error("inference_failed", zap.Error(err))
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "inference failed"})
			return
		}
		outputs = append(outputs, domain.PromptOutput{Prompt: p, Output: text})
	}
	writeJSON(w, http.StatusOK, domain.GenerateResponse{Outputs: outputs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
