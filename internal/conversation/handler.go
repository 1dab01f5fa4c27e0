package conversation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-secretary/internal/observability/metrics"
	"github.com/clinicdesk/clinic-secretary/internal/patients"
	"github.com/clinicdesk/clinic-secretary/internal/whatsapp"
	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// Handler exposes the dialog engine over HTTP: the direct agent endpoint and
// the WhatsApp webhook pair.
type Handler struct {
	engine   *Engine
	store    *Store
	client   *whatsapp.Client
	patients PatientDirectory
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
}

func NewHandler(engine *Engine, store *Store, client *whatsapp.Client, dir PatientDirectory, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		store:    store,
		client:   client,
		patients: dir,
		metrics:  m,
		logger:   logger,
	}
}

// ProcessMessage handles POST /agent/message. Callers may carry state inline
// or let the redis store key it by channel id.
func (h *Handler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message   string `json:"message"`
		ChannelID string `json:"channel_id,omitempty"`
		State     *State `json:"conversation_state,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if body.Message == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	st := body.State
	if st == nil && body.ChannelID != "" && h.store != nil {
		loaded, err := h.store.Load(r.Context(), body.ChannelID)
		if err != nil {
			h.logger.Error("failed to load conversation state", "channel_id", body.ChannelID, "error", err)
		} else {
			st = loaded
		}
	}
	if st == nil {
		st = NewState()
	}
	if body.ChannelID != "" {
		st.ChannelID = body.ChannelID
	}

	result := h.engine.ProcessMessage(r.Context(), body.Message, st)
	h.metrics.ObserveIntent(string(result.Intent))

	if body.ChannelID != "" && h.store != nil {
		if err := h.store.Save(r.Context(), body.ChannelID, result.State); err != nil {
			h.logger.Error("failed to save conversation state", "channel_id", body.ChannelID, "error", err)
		}
	}

	status := http.StatusOK
	if result.Status == StatusError {
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, result)
}

// VerifyWebhook handles GET /webhook, the Meta subscription handshake.
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := h.client.VerifyWebhook(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if !ok {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// ReceiveWebhook handles POST /webhook: inbound WhatsApp deliveries. The
// provider expects a 200 ack for anything it may retry, so processing
// problems are reported in the body, not the status code.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.metrics.ObserveInbound("read_error")
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	msg, ok := whatsapp.ExtractMessage(payload)
	if !ok {
		h.metrics.ObserveInbound("no_message")
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "no_message"})
		return
	}

	st := h.loadOrSeedState(r, msg.From)
	result := h.engine.ProcessMessage(r.Context(), msg.Body, st)
	h.metrics.ObserveIntent(string(result.Intent))

	if h.store != nil {
		if err := h.store.Save(r.Context(), msg.From, result.State); err != nil {
			h.logger.Error("failed to save conversation state", "channel_id", msg.From, "error", err)
		}
	}

	if _, err := h.client.SendText(r.Context(), msg.From, result.Response); err != nil {
		if !errors.Is(err, whatsapp.ErrNotConfigured) {
			h.logger.Error("failed to send reply", "to", msg.From, "error", err)
		}
		h.metrics.ObserveOutbound("reply", "failed")
	} else {
		h.metrics.ObserveOutbound("reply", "sent")
	}

	h.metrics.ObserveInbound("processed")
	h.metrics.ObserveWebhookLatency("processed", time.Since(started).Seconds())
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "processed",
		"message_id": msg.MessageID,
		"response":   result.Response,
	})
}

// loadOrSeedState restores redis state for a WhatsApp sender, seeding a new
// conversation with the patient's known name and phone when the number is on
// file.
func (h *Handler) loadOrSeedState(r *http.Request, from string) *State {
	if h.store != nil {
		st, err := h.store.Load(r.Context(), from)
		if err != nil {
			h.logger.Error("failed to load conversation state", "channel_id", from, "error", err)
		} else if st != nil {
			return st
		}
	}
	st := NewState()
	st.ChannelID = from
	st.ChannelType = "whatsapp"
	if h.patients != nil {
		if patient, err := h.patients.GetByPhone(r.Context(), from); err == nil {
			st.Collected[SlotName] = patient.Name
			st.Collected[SlotPhone] = patient.Phone
		} else if !errors.Is(err, patients.ErrNotFound) {
			h.logger.Error("failed to prefill patient context", "channel_id", from, "error", err)
		}
	}
	return st
}

// GetHistory handles GET /conversation/history/{channel_id}: the stored
// message log for a channel.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "conversation store unavailable"})
		return
	}
	channelID := chi.URLParam(r, "channel_id")
	st, err := h.store.Load(r.Context(), channelID)
	if err != nil {
		h.logger.Error("failed to load conversation state", "channel_id", channelID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load conversation"})
		return
	}
	if st == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no conversation for channel"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"channel_id": channelID,
		"messages":   st.Messages,
		"count":      len(st.Messages),
	})
}

// ResetConversation handles POST /conversation/reset/{channel_id}, dropping
// the stored state so the next message starts fresh.
func (h *Handler) ResetConversation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "conversation store unavailable"})
		return
	}
	channelID := chi.URLParam(r, "channel_id")
	if err := h.store.Reset(r.Context(), channelID); err != nil {
		h.logger.Error("failed to reset conversation state", "channel_id", channelID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset conversation"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "reset",
		"channel_id": channelID,
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
