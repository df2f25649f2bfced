package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/chat"
	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/erp"
)

const reply = `{"data":{},"insights":["cash is up"],"summary":"Healthy","recommendations":[],"visualizations":[]}`

// vendorServer fakes the Claude Messages API. status 0 means 200.
func vendorServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		body, _ := json.Marshal(map[string]any{
			"content": []map[string]string{{"type": "text", "text": reply}},
			"usage":   map[string]int{"input_tokens": 10, "output_tokens": 5},
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	srv   *Server
	http  *httptest.Server
	asst  *assistant.Assistant
	store *chat.MemoryStore
}

func newFixture(t *testing.T, vendorStatus int, active bool, cfg config.ServerConfig) *fixture {
	t.Helper()
	vendor := vendorServer(t, vendorStatus)
	reg := ai.NewRegistry([]ai.ProviderConfig{
		{ID: "claude-1", Name: "Claude", APIKey: "sk-ant-secret-key", Model: "claude-3-sonnet-20240229", CostPerToken: 0.015, BaseURL: vendor.URL},
		{ID: "openai-1", Name: "OpenAI", Model: "gpt-4", CostPerToken: 0.03},
	})
	if active {
		if err := reg.SetActive("claude-1"); err != nil {
			t.Fatal(err)
		}
	}
	ex := erp.NewExecutor(erp.DemoSource{})
	a := assistant.New(reg, ex)
	store := chat.NewMemoryStore()
	s := New(Deps{Assistant: a, Executor: ex, Store: store, Config: cfg})

	hs := httptest.NewServer(s.Handler())
	t.Cleanup(hs.Close)
	return &fixture{srv: s, http: hs, asst: a, store: store}
}

func (f *fixture) do(t *testing.T, method, path, body string, header map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.http.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]apiError
	decode(t, resp, &body)
	return body["error"].Code
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})
	resp := f.do(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestQueryAndSession(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})

	resp := f.do(t, http.MethodPost, "/api/v1/query",
		`{"query":"Who are our top customers?","context":{"team":"sales"}}`,
		map[string]string{SessionHeader: "s-1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get(SessionHeader); got != "s-1" {
		t.Errorf("session header = %q", got)
	}
	var qr queryResponse
	decode(t, resp, &qr)
	if qr.SessionID != "s-1" || qr.Response.Summary != "Healthy" {
		t.Fatalf("response = %+v", qr)
	}
	if len(qr.Response.Visualizations) == 0 || qr.Response.Visualizations[0].Title != "Top Customers by Revenue" {
		t.Errorf("derived chart missing: %+v", qr.Response.Visualizations)
	}
	if qr.Message.Role != chat.RoleAssistant || qr.Message.IsLoading {
		t.Errorf("message = %+v", qr.Message)
	}

	resp = f.do(t, http.MethodGet, "/api/v1/sessions/s-1/messages", "", nil)
	var sm struct {
		Messages []chat.Message `json:"messages"`
	}
	decode(t, resp, &sm)
	if len(sm.Messages) != 2 || sm.Messages[0].Content != "Who are our top customers?" || sm.Messages[1].Content != "Healthy" {
		t.Fatalf("messages = %+v", sm.Messages)
	}

	resp = f.do(t, http.MethodGet, "/api/v1/sessions/s-1/export", "", nil)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "netsuite-chat-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var doc struct {
		Messages []chat.Message `json:"messages"`
	}
	decode(t, resp, &doc)
	if len(doc.Messages) != 2 {
		t.Errorf("exported %d messages", len(doc.Messages))
	}

	resp = f.do(t, http.MethodDelete, "/api/v1/sessions/s-1", "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	msgs, _ := f.store.Load(t.Context(), "s-1")
	if len(msgs) != 0 {
		t.Errorf("session not deleted: %d messages", len(msgs))
	}
}

func TestQueryGeneratesSessionID(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})
	resp := f.do(t, http.MethodPost, "/api/v1/query", `{"query":"show inventory levels"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(SessionHeader) == "" {
		t.Error("no session id issued")
	}
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name         string
		vendorStatus int
		active       bool
		body         string
		wantStatus   int
		wantCode     string
	}{
		{"malformed body", 0, true, `{`, http.StatusBadRequest, "INVALID_BODY"},
		{"empty query", 0, true, `{"query":"  "}`, http.StatusBadRequest, "INVALID_QUERY"},
		{"harmful query", 0, true, `{"query":"DROP TABLE customers"}`, http.StatusBadRequest, "INVALID_QUERY"},
		{"no active provider", 0, false, `{"query":"show revenue"}`, http.StatusUnprocessableEntity, "PROVIDER_NOT_CONFIGURED"},
		{"missing credential", 0, true, `{"query":"show revenue","providerId":"openai-1"}`, http.StatusUnprocessableEntity, "PROVIDER_NOT_CONFIGURED"},
		{"vendor failure", http.StatusInternalServerError, true, `{"query":"show revenue"}`, http.StatusBadGateway, "PROCESSING_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.vendorStatus, tt.active, config.ServerConfig{})
			resp := f.do(t, http.MethodPost, "/api/v1/query", tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if code := errorCode(t, resp); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestFailedQueryIsRecordedInSession(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError, true, config.ServerConfig{})
	f.do(t, http.MethodPost, "/api/v1/query", `{"query":"show revenue"}`, map[string]string{SessionHeader: "s-err"})

	msgs, _ := f.store.Load(t.Context(), "s-err")
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v", msgs)
	}
	if !strings.HasPrefix(msgs[1].Content, "Error: ") || msgs[1].IsLoading {
		t.Errorf("assistant message = %+v", msgs[1])
	}
}

func TestProviders(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})

	resp := f.do(t, http.MethodGet, "/api/v1/providers", "", nil)
	var list struct {
		Providers []ai.ProviderConfig `json:"providers"`
		ActiveID  string              `json:"activeId"`
	}
	decode(t, resp, &list)
	if list.ActiveID != "claude-1" || len(list.Providers) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Providers[0].APIKey != "****-key" {
		t.Errorf("key not redacted: %q", list.Providers[0].APIKey)
	}

	resp = f.do(t, http.MethodPut, "/api/v1/providers/claude-1", `{"name":"Claude","model":"claude-3-opus"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	p, _ := f.asst.ActiveProvider()
	if p.Model != "claude-3-opus" || p.APIKey != "sk-ant-secret-key" {
		t.Errorf("after update = %+v", p)
	}

	resp = f.do(t, http.MethodPut, "/api/v1/providers/nope", `{"name":"Claude"}`, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown update status = %d", resp.StatusCode)
	}
	resp = f.do(t, http.MethodPut, "/api/v1/providers/claude-1", `{"name":"Llama"}`, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unsupported vendor status = %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPost, "/api/v1/providers/openai-1/activate", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate status = %d", resp.StatusCode)
	}
	if p, _ := f.asst.ActiveProvider(); p.ID != "openai-1" {
		t.Errorf("active = %q", p.ID)
	}
	resp = f.do(t, http.MethodPost, "/api/v1/providers/nope/activate", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown activate status = %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPut, "/api/v1/settings/cors-proxy", `{"enabled":true}`, nil)
	if resp.StatusCode != http.StatusOK || !f.asst.UseCORSProxy() {
		t.Errorf("cors proxy status = %d, on = %v", resp.StatusCode, f.asst.UseCORSProxy())
	}
}

func TestProviderChangesPersistToSettings(t *testing.T) {
	path := t.TempDir() + "/config.json"
	settings, err := config.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	providers, _ := settings.Providers()
	reg := ai.NewRegistry(providers)
	a := assistant.New(reg, erp.NewExecutor(erp.DemoSource{}))
	hs := httptest.NewServer(New(Deps{Assistant: a, Settings: settings}).Handler())
	defer hs.Close()

	req, _ := http.NewRequest(http.MethodPut, hs.URL+"/api/v1/providers/gemini-1", strings.NewReader(`{"name":"Gemini","apiKey":"g-key"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	resp, err = http.Post(hs.URL+"/api/v1/providers/gemini-1/activate", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	reloaded, err := config.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Gemini.APIKey != "g-key" || reloaded.ActiveProvider != "gemini" {
		t.Errorf("reloaded = %+v", reloaded)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})
	f.do(t, http.MethodPost, "/api/v1/query", `{"query":"What's our cash flow?"}`, nil)

	resp := f.do(t, http.MethodGet, "/metrics", "", nil)
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`paierp_queries_total{category="financial"} 1`,
		`paierp_estimated_cost_total{provider="claude-1"}`,
		`http_requests_total{route="/api/v1/query",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{RateLimit: 1, RateBurst: 2})
	for i := 0; i < 2; i++ {
		if resp := f.do(t, http.MethodGet, "/api/v1/providers", "", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
	resp := f.do(t, http.MethodGet, "/api/v1/providers", "", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/health", "", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health is rate limited: %d", resp.StatusCode)
	}
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t, 0, true, config.ServerConfig{})
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/api/v1/ws?session=ws-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(queryRequest{Query: "  "}); err != nil {
		t.Fatal(err)
	}
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame.Type != frameInvalid || len(frame.Errors) == 0 {
		t.Fatalf("invalid frame = %+v", frame)
	}

	if err := conn.WriteJSON(queryRequest{Query: "What's our cash flow?"}); err != nil {
		t.Fatal(err)
	}
	var loading, final wsFrame
	if err := conn.ReadJSON(&loading); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&final); err != nil {
		t.Fatal(err)
	}
	if loading.Response == nil || loading.Response.Summary != assistant.LoadingSummary || !*loading.Response.IsLoading {
		t.Errorf("loading = %+v", loading.Response)
	}
	if final.SessionID != "ws-1" || final.Response == nil || final.Response.Summary != "Healthy" || *final.Response.IsLoading {
		t.Errorf("final = %+v", final)
	}

	// Frames are handled in order, so a reply to the next frame means the
	// previous answer has been saved.
	if err := conn.WriteJSON(queryRequest{}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	msgs, _ := f.store.Load(t.Context(), "ws-1")
	if len(msgs) != 2 || msgs[1].Content != "Healthy" {
		t.Errorf("session = %+v", msgs)
	}
}

type unavailableStore struct{ *chat.MemoryStore }

func (*unavailableStore) Load(context.Context, string) ([]chat.Message, error) {
	return nil, errors.New("redis: connection refused")
}

func TestWebSocketSessionLoadFailure(t *testing.T) {
	vendor := vendorServer(t, 0)
	reg := ai.NewRegistry([]ai.ProviderConfig{
		{ID: "claude-1", Name: "Claude", APIKey: "sk-ant-secret-key", Model: "claude-3-sonnet-20240229", BaseURL: vendor.URL},
	})
	if err := reg.SetActive("claude-1"); err != nil {
		t.Fatal(err)
	}
	ex := erp.NewExecutor(erp.DemoSource{})
	s := New(Deps{Assistant: assistant.New(reg, ex), Executor: ex, Store: &unavailableStore{chat.NewMemoryStore()}})
	hs := httptest.NewServer(s.Handler())
	defer hs.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http")+"/api/v1/ws?session=down", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Each question gets an error frame and the connection stays usable.
	for i := 0; i < 2; i++ {
		if err := conn.WriteJSON(queryRequest{Query: "What's our cash flow?"}); err != nil {
			t.Fatal(err)
		}
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if frame.Type != frameError || frame.SessionID != "down" || len(frame.Errors) == 0 || frame.Response != nil {
			t.Errorf("frame %d = %+v", i, frame)
		}
	}
}
