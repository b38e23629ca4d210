package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/legallink/backend/internal/metrics"
	"github.com/legallink/backend/internal/service/rag"
	"github.com/legallink/backend/pkg/utils"
)

// Conversation is the slice of the controller this handler needs.
type Conversation interface {
	HandleTurnStream(ctx context.Context, sessionID, userText string, emit func(rag.TurnEvent)) (*rag.TurnResult, error)
	Mode() rag.Mode
}

// Handler streams answer synthesis over Server-Sent Events.
type Handler struct {
	ctrl Conversation
}

func New(ctrl Conversation) *Handler {
	return &Handler{ctrl: ctrl}
}

// HandleStreamRequest runs one turn and relays its progress events as
// SSE messages: "status" while retrieving, "sources" once context is
// selected, "delta" per answer fragment, and a final "done" with the
// complete result.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", map[string]string{"sessionId": sessionID})

	mode := string(h.ctrl.Mode())
	start := time.Now()
	result, err := h.ctrl.HandleTurnStream(ctx, sessionID, userMessage, func(ev rag.TurnEvent) {
		switch ev.Type {
		case rag.EventStatus:
			utils.SendSSEEvent(w, flusher, "status", map[string]string{"status": ev.Status})
		case rag.EventSources:
			utils.SendSSEEvent(w, flusher, "sources", ev.Sources)
		case rag.EventDelta:
			utils.SendSSEEvent(w, flusher, "delta", map[string]string{"content": ev.Delta})
		}
	})
	metrics.TurnDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TurnsTotal.WithLabelValues(mode, "error").Inc()
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": err.Error()})
		return err
	}
	metrics.TurnsTotal.WithLabelValues(mode, "ok").Inc()

	utils.SendSSEEvent(w, flusher, "done", result)
	return nil
}
