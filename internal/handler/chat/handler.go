package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/legallink/backend/internal/metrics"
	chatModel "github.com/legallink/backend/internal/model/chat"
	"github.com/legallink/backend/internal/service/history"
	"github.com/legallink/backend/internal/service/rag"
)

// Conversation is the slice of the controller this handler needs.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID, userText string) (*rag.TurnResult, error)
	Mode() rag.Mode
}

// Handler exposes the question/answer turn API and the transcript.
type Handler struct {
	ctrl  Conversation
	store history.Store
}

func New(ctrl Conversation, store history.Store) *Handler {
	return &Handler{ctrl: ctrl, store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/chat", h.handleChat)
	r.Get("/history/{sessionID}", h.handleHistory)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := chatModel.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	mode := string(h.ctrl.Mode())
	start := time.Now()
	result, err := h.ctrl.HandleTurn(r.Context(), payload.SessionID, payload.Message)
	metrics.TurnDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(mode, "error").Inc()
		respondError(w, turnErrorStatus(err), err.Error())
		return
	}
	metrics.TurnsTotal.WithLabelValues(mode, "ok").Inc()

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	messages, err := h.store.Load(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []chatModel.Message{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

// turnErrorStatus maps controller failures to HTTP status codes. Model
// failures surface as a bad gateway so clients can retry.
func turnErrorStatus(err error) int {
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion), errors.Is(err, history.ErrEmptySessionID):
		return http.StatusBadRequest
	case errors.Is(err, rag.ErrModelInvocation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
