package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"inference-gateway/gateway/application"
	"inference-gateway/gateway/domain"

	"go.uber.org/zap"
)

const (
	welcomeMessage = "Welcome to the FastAPI Gateway!"

	detailBackendError  = "backend error"
	detailForwardFailed = "gateway forward failed"

	defaultMaxBodyBytes = 1 << 20
)

type Options struct {
	Forward application.ForwardService
	Health  application.HealthService
	// Metrics serve GET /metrics; nil desliga a rota.
	Metrics http.Handler
	// RateLimit envolve apenas POST /generate; nil desliga.
	RateLimit    func(http.Handler) http.Handler
	KeyFn        KeyFunc
	MaxBodyBytes int64
	Log          *zap.Logger
}

type handler struct {
	forward      application.ForwardService
	health       application.HealthService
	keyFn        KeyFunc
	maxBodyBytes int64
	log          *zap.Logger
}

// NewHandler monta as rotas do gateway:
//
//	GET  /         mensagem estática
//	GET  /healthz  status do gateway e do backend (fora do portão)
//	POST /generate encaminhamento limitado pelo portão de admissão
//	GET  /metrics  exposição Prometheus
func NewHandler(opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc("", false)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	h := &handler{
		forward:      opts.Forward,
		health:       opts.Health,
		keyFn:        opts.KeyFn,
		maxBodyBytes: opts.MaxBodyBytes,
		log:          opts.Log,
	}

	generate := http.Handler(http.HandlerFunc(h.generate))
	if opts.RateLimit != nil {
		generate = opts.RateLimit(generate)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("POST /generate", generate)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	return Recovery(opts.Log)(AccessLog(opts.Log)(mux))
}

func (h *handler) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": welcomeMessage})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health.Check(r.Context()))
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	req, status, err := decodeGenerateRequest(w, r, h.maxBodyBytes)
	if err != nil {
		h.log.Debug("invalid_generate_request", zap.Error(err))
		writeDetail(w, status, err.Error())
		return
	}

	key, ok := clientKeyFrom(r)
	if !ok {
		key = h.keyFn(r)
	}

	out := h.forward.Generate(r.Context(), req, application.RequestMeta{
		Key:    domain.Key(key),
		Method: r.Method,
		Path:   r.URL.Path,
	})
	writeOutcome(w, out)
}

// decodeGenerateRequest valida o payload antes da seção contabilizada.
func decodeGenerateRequest(w http.ResponseWriter, r *http.Request, limit int64) (domain.GenerateRequest, int, error) {
	var req domain.GenerateRequest

	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusRequestEntityTooLarge, errors.New("request body too large")
		}
		return req, http.StatusUnprocessableEntity, errors.New("body must be a JSON object with a \"prompts\" list of strings")
	}
	if err := req.Validate(); err != nil {
		return req, http.StatusUnprocessableEntity, err
	}
	return req, 0, nil
}

// writeOutcome é a tabela de tradução Outcome -> resposta HTTP.
func writeOutcome(w http.ResponseWriter, out domain.Outcome) {
	switch out.Kind {
	case domain.OutcomeSuccess:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Body)
	case domain.OutcomeClientError:
		if out.ContentType != "" {
			w.Header().Set("Content-Type", out.ContentType)
		}
		w.WriteHeader(out.StatusCode)
		_, _ = w.Write(out.Body)
	case domain.OutcomeUpstreamError:
		writeDetail(w, http.StatusBadGateway, detailBackendError)
	case domain.OutcomeTransportFailure:
		writeDetail(w, http.StatusInternalServerError, detailForwardFailed)
	default:
		writeDetail(w, http.StatusInternalServerError, detailForwardFailed)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
