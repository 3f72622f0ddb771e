package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/cloud-ru/loan-calculator-bot/internal/config"
	"github.com/cloud-ru/loan-calculator-bot/internal/conversation"
	"github.com/cloud-ru/loan-calculator-bot/internal/session"
	"github.com/cloud-ru/loan-calculator-bot/internal/tools"
)

func testConfig() *config.Config {
	return &config.Config{
		MinPrincipal:     1,
		MaxPrincipal:     1e9,
		MaxMonths:        360,
		MinRate:          1,
		MaxRate:          100,
		SchedulePageSize: 12,
		Timezone:         "UTC",
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	flow := conversation.NewFlow(cfg, session.NewMemoryStore(time.Hour), zap.NewNop())
	registry := tools.Registry(cfg, noop.NewTracerProvider().Tracer("test"))
	return NewServer(registry, flow, zap.NewNop()).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTools(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/v1/tools", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tools":["loan_monthly_payment","loan_schedule_annuity"]}`, w.Body.String())
}

func TestCallTool(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{
			name:   "schedule",
			target: "/v1/tools/loan_schedule_annuity",
			body:   `{"principal": 100000, "annual_rate_percent": 12, "months": 12, "start_date": "2026-10-14"}`,
			status: http.StatusOK,
		},
		{
			name:   "validation error",
			target: "/v1/tools/loan_schedule_annuity",
			body:   `{"principal": 0, "annual_rate_percent": 12, "months": 12}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid json",
			target: "/v1/tools/loan_schedule_annuity",
			body:   `{invalid-json}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown tool",
			target: "/v1/tools/deposit_schedule",
			body:   `{}`,
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestCallToolScheduleBody(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodPost, "/v1/tools/loan_schedule_annuity",
		`{"principal": 100000, "annual_rate_percent": 12, "months": 12, "start_date": "2026-10-14"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result tools.ScheduleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 8884.88, result.Summary.MonthlyPayment)
	require.Len(t, result.Schedule, 12)
	assert.Equal(t, 1, result.Schedule[0].Index)
}

func TestCallToolMethodNotAllowed(t *testing.T) {
	w := do(t, newTestServer(t), http.MethodGet, "/v1/tools/loan_schedule_annuity", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestChatEvents(t *testing.T) {
	h := newTestServer(t)

	steps := []struct {
		body    string
		replies int
		contain string
	}{
		{body: `{"kind": "command", "text": "start", "user_name": "Тест"}`, replies: 2, contain: "Тест"},
		{body: `{"kind": "text", "text": "100000"}`, replies: 1, contain: "срок"},
		{body: `{"kind": "text", "text": "12"}`, replies: 1, contain: "ставку"},
		{body: `{"kind": "text", "text": "12"}`, replies: 1, contain: "8 884.88"},
		{body: `{"kind": "callback", "text": "show_payments"}`, replies: 1, contain: "(стр. 1 из 1)"},
	}

	for _, step := range steps {
		w := do(t, h, http.MethodPost, "/v1/chats/77/events", step.body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp chatEventResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Replies, step.replies, step.body)
		texts := ""
		for _, r := range resp.Replies {
			texts += r.Text
		}
		assert.Contains(t, texts, step.contain, step.body)
	}
}

func TestChatEventBadRequests(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/v1/chats/abc/events", `{"kind": "text", "text": "1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/chats/1/events", `{"kind": "voice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/chats/1/events", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type brokenFlow struct{}

func (brokenFlow) Handle(ctx context.Context, ev conversation.Event) ([]conversation.Reply, error) {
	return nil, errors.New("store down")
}

func TestChatEventServerError(t *testing.T) {
	h := NewServer(nil, brokenFlow{}, zap.NewNop()).Routes()
	w := do(t, h, http.MethodPost, "/v1/chats/1/events", `{"kind": "text", "text": "1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestServer(t)
	huge := `{"text": "` + strings.Repeat("1", maxBodyBytes+1) + `"}`

	w := do(t, h, http.MethodPost, "/v1/tools/loan_monthly_payment", huge)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/v1/chats/1/events", huge)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
