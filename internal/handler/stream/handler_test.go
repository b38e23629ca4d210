package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/legallink/backend/internal/model/document"
	"github.com/legallink/backend/internal/service/rag"
)

type stubConversation struct {
	events []rag.TurnEvent
	result *rag.TurnResult
	err    error
}

func (s *stubConversation) HandleTurnStream(_ context.Context, _, _ string, emit func(rag.TurnEvent)) (*rag.TurnResult, error) {
	for _, ev := range s.events {
		emit(ev)
	}
	return s.result, s.err
}

func (s *stubConversation) Mode() rag.Mode { return rag.ModeChain }

func TestHandleStreamRequestEmitsEventFrames(t *testing.T) {
	ctrl := &stubConversation{
		events: []rag.TurnEvent{
			{Type: rag.EventStatus, Status: "retrieving"},
			{Type: rag.EventSources, Sources: []document.RetrievedChunk{{Source: "uu-40-2007", Article: "1", Rank: 1}}},
			{Type: rag.EventDelta, Delta: "PT adalah "},
			{Type: rag.EventDelta, Delta: "badan hukum."},
		},
		result: &rag.TurnResult{SessionID: "s1", Answer: "PT adalah badan hukum."},
	}
	h := New(ctrl)

	rec := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), rec, "s1", "Apa itu PT?"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"event: start\n",
		"event: status\ndata: {\"status\":\"retrieving\"}",
		"event: sources\n",
		"event: delta\ndata: {\"content\":\"PT adalah \"}",
		"event: done\n",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in stream:\n%s", want, body)
		}
	}
	if strings.Index(body, "event: status") > strings.Index(body, "event: delta") {
		t.Fatal("status event must precede deltas")
	}
}

func TestHandleStreamRequestReportsErrors(t *testing.T) {
	ctrl := &stubConversation{err: errors.New("model offline")}
	h := New(ctrl)

	rec := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), rec, "s1", "q"); err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(rec.Body.String(), "event: error") {
		t.Fatalf("missing error event:\n%s", rec.Body.String())
	}
}
