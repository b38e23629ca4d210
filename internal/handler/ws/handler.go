package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/legallink/backend/internal/service/rag"
)

// Conversation is the slice of the controller this handler needs.
type Conversation interface {
	HandleTurnStream(ctx context.Context, sessionID, userText string, emit func(rag.TurnEvent)) (*rag.TurnResult, error)
}

// Handler runs conversation turns over a WebSocket connection. Each
// inbound frame is one question; progress events and the final result
// are written back as JSON frames.
type Handler struct {
	ctrl     Conversation
	upgrader websocket.Upgrader
}

func New(ctrl Conversation) *Handler {
	return &Handler{
		ctrl: ctrl,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.handleChat)
}

type inboundFrame struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type outboundFrame struct {
	Type    string          `json:"type"`
	Status  string          `json:"status,omitempty"`
	Delta   string          `json:"delta,omitempty"`
	Error   string          `json:"error,omitempty"`
	Result  *rag.TurnResult `json:"result,omitempty"`
	Sources interface{}     `json:"sources,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		result, err := h.ctrl.HandleTurnStream(r.Context(), frame.SessionID, frame.Message, func(ev rag.TurnEvent) {
			var out outboundFrame
			switch ev.Type {
			case rag.EventStatus:
				out = outboundFrame{Type: "status", Status: ev.Status}
			case rag.EventSources:
				out = outboundFrame{Type: "sources", Sources: ev.Sources}
			case rag.EventDelta:
				out = outboundFrame{Type: "delta", Delta: ev.Delta}
			default:
				return
			}
			if werr := conn.WriteJSON(out); werr != nil {
				log.Printf("[ws] write failed: %v", werr)
			}
		})
		if err != nil {
			if werr := conn.WriteJSON(outboundFrame{Type: "error", Error: err.Error()}); werr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(outboundFrame{Type: "done", Result: result}); err != nil {
			return
		}
	}
}
