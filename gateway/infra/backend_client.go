package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"inference-gateway/gateway/domain"
)

const (
	// HealthTimeout é fixo e independe de REQUEST_TIMEOUT.
	HealthTimeout = 3 * time.Second

	maxBackendBody = 32 << 20
)

var (
	ErrBackendClientClosed  = errors.New("backend client is closed")
	ErrMalformedBackendBody = errors.New("backend returned a malformed body")
	ErrUnexpectedStatus     = errors.New("backend returned an unexpected status")
	ErrBackendBodyTooLarge  = errors.New("backend body exceeds size limit")
)

type BackendClientConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxConns       int
	MaxIdleConns   int
}

// BackendClient é o cliente de encaminhamento: um único *http.Client com pool
// de conexões, criado no startup e fechado no shutdown.
//
// O handle fica num atomic.Pointer; depois de Close toda chamada falha com
// ErrBackendClientClosed em vez de reabrir conexões.
type BackendClient struct {
	baseURL *url.URL
	timeout time.Duration
	maxBody int64
	client  atomic.Pointer[http.Client]
}

var _ domain.Backend = (*BackendClient)(nil)

func NewBackendClient(cfg BackendClientConfig) (*BackendClient, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", cfg.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", cfg.BaseURL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 100
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 20
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConns,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &BackendClient{baseURL: u, timeout: cfg.RequestTimeout, maxBody: maxBackendBody}
	c.client.Store(&http.Client{
		Transport: transport,
		// o backend não redireciona; um 3xx é tratado como status inesperado
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	})
	return c, nil
}

func (c *BackendClient) RequestTimeout() time.Duration { return c.timeout }

// Close fecha as conexões ociosas e invalida o handle. Chamadas repetidas são no-op.
func (c *BackendClient) Close() {
	if c == nil {
		return
	}
	if hc := c.client.Swap(nil); hc != nil {
		hc.CloseIdleConnections()
	}
}

func (c *BackendClient) httpClient() (*http.Client, error) {
	if c == nil {
		return nil, ErrBackendClientClosed
	}
	hc := c.client.Load()
	if hc == nil {
		return nil, ErrBackendClientClosed
	}
	return hc, nil
}

func (c *BackendClient) endpoint(path string) string {
	return c.baseURL.String() + path
}

// Generate envia o payload para POST /generate e normaliza o resultado.
func (c *BackendClient) Generate(ctx context.Context, req domain.GenerateRequest) domain.Outcome {
	hc, err := c.httpClient()
	if err != nil {
		return domain.TransportFailure(err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/generate"), bytes.NewReader(payload))
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := hc.Do(httpReq)
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("post /generate: %w", err))
	}
	defer resp.Body.Close()

	// o corpo também é lido dentro do timeout; um byte a mais denuncia o estouro
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return domain.TransportFailure(fmt.Errorf("read /generate body: %w", err))
	}
	if int64(len(body)) > c.maxBody {
		return domain.TransportFailure(fmt.Errorf("%w: status %d, more than %d bytes", ErrBackendBodyTooLarge, resp.StatusCode, c.maxBody))
	}

	return classify(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

func classify(status int, contentType string, body []byte) domain.Outcome {
	switch {
	case status >= 500:
		return domain.UpstreamError(status, fmt.Errorf("backend status %d", status))
	case status >= 400:
		if contentType == "" {
			contentType = "text/plain; charset=utf-8"
		}
		return domain.ClientError(status, body, contentType)
	case status >= 200 && status < 300:
		if !json.Valid(body) {
			return domain.TransportFailure(ErrMalformedBackendBody)
		}
		return domain.Success(body)
	default:
		return domain.TransportFailure(fmt.Errorf("%w: %d", ErrUnexpectedStatus, status))
	}
}

// Health consulta GET /healthz do backend com HealthTimeout.
// Qualquer status diferente de 200 ou corpo inválido vira erro.
func (c *BackendClient) Health(ctx context.Context) (domain.BackendHealth, error) {
	hc, err := c.httpClient()
	if err != nil {
		return domain.BackendHealth{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/healthz"), nil)
	if err != nil {
		return domain.BackendHealth{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return domain.BackendHealth{}, fmt.Errorf("get /healthz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return domain.BackendHealth{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var h domain.BackendHealth
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&h); err != nil {
		return domain.BackendHealth{}, fmt.Errorf("%w: %v", ErrMalformedBackendBody, err)
	}
	return h, nil
}
