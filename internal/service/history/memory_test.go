package history

import (
	"context"
	"sync"
	"testing"

	"github.com/legallink/backend/internal/model/chat"
)

func TestMemoryStoreLoadUnknownSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore()
	msgs, err := s.Load(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty transcript, got %d messages", len(msgs))
	}
}

func TestMemoryStorePreservesOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	turns := []chat.Message{
		{Role: chat.RoleUser, Content: "Apa itu PT?"},
		{Role: chat.RoleAssistant, Content: "PT adalah badan hukum."},
		{Role: chat.RoleUser, Content: "Apa dasar hukumnya?"},
	}
	for _, m := range turns {
		if err := s.Append(ctx, "sesi-1", m); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	got, err := s.Load(ctx, "sesi-1")
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(got) != len(turns) {
		t.Fatalf("expected %d messages, got %d", len(turns), len(got))
	}
	for i := range turns {
		if got[i].Content != turns[i].Content || got[i].Role != turns[i].Role {
			t.Fatalf("message %d out of order: %+v", i, got[i])
		}
		if got[i].ID == "" || got[i].CreatedAt.IsZero() {
			t.Fatalf("message %d missing id/timestamp", i)
		}
		if got[i].SessionID != "sesi-1" {
			t.Fatalf("message %d has wrong session: %s", i, got[i].SessionID)
		}
	}
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Append(ctx, "a", chat.Message{Role: chat.RoleUser, Content: "halo"})
	_ = s.Append(ctx, "b", chat.Message{Role: chat.RoleUser, Content: "hai"})

	a, _ := s.Load(ctx, "a")
	b, _ := s.Load(ctx, "b")
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("sessions leaked: a=%d b=%d", len(a), len(b))
	}
	if a[0].Content == b[0].Content {
		t.Fatal("sessions share messages")
	}
}

func TestMemoryStoreRejectsEmptySessionID(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Append(context.Background(), "", chat.Message{Role: chat.RoleUser}); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if _, err := s.Load(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = s.Append(ctx, id, chat.Message{Role: chat.RoleUser, Content: "m"})
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		msgs, err := s.Load(ctx, string(rune('a'+i)))
		if err != nil {
			t.Fatalf("Load err: %v", err)
		}
		if len(msgs) != 20 {
			t.Fatalf("session %c lost messages: %d", 'a'+i, len(msgs))
		}
	}
}
