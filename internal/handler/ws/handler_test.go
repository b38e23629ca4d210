package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/legallink/backend/internal/service/rag"
)

type stubConversation struct {
	events []rag.TurnEvent
	result *rag.TurnResult
	err    error
}

func (s *stubConversation) HandleTurnStream(_ context.Context, sessionID, _ string, emit func(rag.TurnEvent)) (*rag.TurnResult, error) {
	for _, ev := range s.events {
		emit(ev)
	}
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	res.SessionID = sessionID
	return &res, nil
}

func dialTestServer(t *testing.T, ctrl Conversation) *websocket.Conn {
	t.Helper()
	r := chi.NewRouter()
	New(ctrl).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestTurnOverWebSocket(t *testing.T) {
	ctrl := &stubConversation{
		events: []rag.TurnEvent{
			{Type: rag.EventStatus, Status: "retrieving"},
			{Type: rag.EventDelta, Delta: "PT adalah badan hukum."},
		},
		result: &rag.TurnResult{Answer: "PT adalah badan hukum."},
	}
	conn := dialTestServer(t, ctrl)

	if err := conn.WriteJSON(inboundFrame{SessionID: "s1", Message: "Apa itu PT?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var types []string
	for {
		var frame outboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read: %v", err)
		}
		types = append(types, frame.Type)
		if frame.Type == "done" {
			if frame.Result == nil || frame.Result.SessionID != "s1" || frame.Result.Answer != "PT adalah badan hukum." {
				t.Fatalf("unexpected result frame: %+v", frame)
			}
			break
		}
	}
	if len(types) != 3 || types[0] != "status" || types[1] != "delta" {
		t.Fatalf("unexpected frame sequence: %v", types)
	}
}

func TestTurnErrorKeepsConnectionOpen(t *testing.T) {
	ctrl := &stubConversation{err: rag.ErrEmptyQuestion}
	conn := dialTestServer(t, ctrl)

	if err := conn.WriteJSON(inboundFrame{SessionID: "s1", Message: ""}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Type != "error" || frame.Error == "" {
		t.Fatalf("expected error frame, got %+v", frame)
	}

	// The connection survives a failed turn.
	if err := conn.WriteJSON(inboundFrame{SessionID: "s1", Message: "ping"}); err != nil {
		t.Fatalf("second write: %v", err)
	}
}
