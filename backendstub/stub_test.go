package backendstub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"inference-gateway/gateway/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStub_NotReady(t *testing.T) {
	s := New(Options{Model: "qwen"})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","ready":false}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/generate", `{"prompts":["a"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"detail":"LLM not initialized yet"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/", "")
	assert.JSONEq(t, `{"service":"backend","model":"qwen","ready":false}`, rec.Body.String())
}

func TestStub_GeneratePreservesOrder(t *testing.T) {
	s := New(Options{})
	s.SetReady(true)

	rec := do(t, s.Handler(), http.MethodPost, "/generate", `{"prompts":["hello","","world"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []domain.PromptOutput{
		{Prompt: "hello", Output: "HELLO"},
		{Prompt: "", Output: ""},
		{Prompt: "world", Output: "WORLD"},
	}, resp.Outputs)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.requests))
}

func TestStub_GeneratorFailure(t *testing.T) {
	s := New(Options{Generator: func(context.Context, string) (string, error) {
		return "", errors.New("cuda out of memory")
	}})
	s.SetReady(true)

	rec := do(t, s.Handler(), http.MethodPost, "/generate", `{"prompts":["a"]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"inference failed"}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(s.errors))
}

func TestStub_InvalidBody(t *testing.T) {
	s := New(Options{})
	s.SetReady(true)

	for _, body := range []string{"", "{", `{"prompts":"a"}`, `{}`} {
		rec := do(t, s.Handler(), http.MethodPost, "/generate", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "body %q", body)
	}
}

func TestStub_Load(t *testing.T) {
	s := New(Options{})
	s.Load(context.Background(), 0)
	assert.True(t, s.Ready())

	s = New(Options{})
	go s.Load(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, s.Ready, time.Second, time.Millisecond)

	s = New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Load(ctx, time.Hour)
	assert.False(t, s.Ready())
}

func TestStub_Metrics(t *testing.T) {
	s := New(Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "llm_generate_requests_total")
}
