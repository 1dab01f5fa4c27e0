package conversation

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinic-secretary/internal/observability/metrics"
	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
)

type handlerFixture struct {
	router http.Handler
	engine *engineFixture
	store  *Store
	graph  *[]string // bodies sent to the fake Graph API
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ef := newEngineFixture(t)

	var sent []string
	graphSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sent = append(sent, string(body))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.REPLY"}]}`))
	}))
	t.Cleanup(graphSrv.Close)

	client := whatsapp.New(whatsapp.Config{
		BaseURL:       graphSrv.URL,
		AccessToken:   "token",
		PhoneNumberID: "123",
		VerifyToken:   "verify-secret",
	})

	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	m := metrics.NewConversationMetrics(prometheus.NewRegistry())
	h := NewHandler(ef.engine, store, client, ef.patients, m, nil)

	r := chi.NewRouter()
	r.Post("/agent/message", h.ProcessMessage)
	r.Get("/webhook", h.VerifyWebhook)
	r.Post("/webhook", h.ReceiveWebhook)
	r.Get("/conversation/history/{channel_id}", h.GetHistory)
	r.Post("/conversation/reset/{channel_id}", h.ResetConversation)
	r.Get("/health", h.Health)

	return &handlerFixture{router: r, engine: ef, store: store, graph: &sent}
}

func TestAgentMessageEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/agent/message",
		strings.NewReader(`{"message": "what are your hours?"}`))
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Response string `json:"response"`
		Intent   string `json:"intent"`
		Status   string `json:"status"`
		State    *State `json:"conversation_state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "get_information", body.Intent)
	require.Equal(t, "completed", body.Status)
	require.NotEmpty(t, body.Response)
	require.NotNil(t, body.State)
	require.Len(t, body.State.Messages, 2)
}

func TestAgentMessageCarriesInlineState(t *testing.T) {
	f := newHandlerFixture(t)

	// First turn starts the scheduling flow.
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent/message",
		strings.NewReader(`{"message": "book an appointment"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var first struct {
		State *State `json:"conversation_state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	// Second turn passes the returned state back inline.
	payload, err := json.Marshal(map[string]any{
		"message":            "my name is maria silva",
		"conversation_state": first.State,
	})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent/message", strings.NewReader(string(payload))))
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		Status string `json:"status"`
		State  *State `json:"conversation_state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	require.Equal(t, "collecting_info", second.Status)
	require.Equal(t, "Maria Silva", second.State.Collected[SlotName])
}

func TestAgentMessageRejectsBadInput(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent/message", strings.NewReader(`{`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent/message", strings.NewReader(`{"message": ""}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookVerification(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=42", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "42", rec.Body.String())

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookInboundMessage(t *testing.T) {
	f := newHandlerFixture(t)

	payload := `{
		"entry": [{"changes": [{"value": {"messages": [{
			"from": "15551234567",
			"id": "wamid.IN1",
			"type": "text",
			"text": {"body": "what are your hours?"}
		}]}}]}]
	}`
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "processed", body["status"])
	require.Equal(t, "wamid.IN1", body["message_id"])

	// The reply went out through the Graph API.
	require.Len(t, *f.graph, 1)
	require.Contains(t, (*f.graph)[0], "15551234567")

	// State was persisted for the channel.
	st, err := f.store.Load(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "15551234567")
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Equal(t, "whatsapp", st.ChannelType)
}

func TestWebhookNoMessage(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook",
		strings.NewReader(`{"entry": [{"changes": [{"value": {"statuses": [{"id": "wamid.S"}]}}]}]}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "no_message", body["status"])
	require.Empty(t, *f.graph)
}

func TestConversationHistoryEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	st := NewState()
	st.ChannelID = "15551234567"
	st.AddMessage(RoleUser, "what are your hours?")
	st.AddMessage(RoleAssistant, "We are open Monday to Friday.")
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	require.NoError(t, f.store.Save(ctx, "15551234567", st))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversation/history/15551234567", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ChannelID string    `json:"channel_id"`
		Messages  []Message `json:"messages"`
		Count     int       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "15551234567", body.ChannelID)
	require.Equal(t, 2, body.Count)
	require.Equal(t, RoleUser, body.Messages[0].Role)

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversation/history/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationResetEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	st := NewState()
	st.AddMessage(RoleUser, "book an appointment")
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	require.NoError(t, f.store.Save(ctx, "15551234567", st))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversation/reset/15551234567", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "reset", body["status"])

	loaded, err := f.store.Load(ctx, "15551234567")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestHealthEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
