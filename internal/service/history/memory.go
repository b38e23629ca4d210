package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/legallink/backend/internal/model/chat"
)

// ErrEmptySessionID rejects history operations without a session key.
var ErrEmptySessionID = errors.New("history: session id is required")

// MemoryStore keeps transcripts in-process. Suitable for development
// and tests; swapped for the Redis backend by configuration.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]chat.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[string][]chat.Message)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]chat.Message, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	copied := make([]chat.Message, len(msgs))
	copy(copied, msgs)
	return copied, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...chat.Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		m.SessionID = sessionID
		s.messages[sessionID] = append(s.messages[sessionID], m)
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
