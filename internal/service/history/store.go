package history

import (
	"context"

	"github.com/legallink/backend/internal/model/chat"
)

// Store persists conversation transcripts keyed by session identifier.
// Load returns messages in chronological order; Append serializes
// writes per session. An unknown session loads as an empty transcript.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]chat.Message, error)
	Append(ctx context.Context, sessionID string, msgs ...chat.Message) error
}
