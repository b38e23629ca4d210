package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/legallink/backend/internal/model/chat"
)

const redisKeyPrefix = "legallink:history:"

// RedisStore persists transcripts as a Redis list of JSON-encoded
// messages per session key. RPUSH keeps chronological order; an
// optional TTL expires idle sessions.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore verifies connectivity before returning the store so a
// misconfigured backend fails at startup, not on the first turn.
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("history: redis ping: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]chat.Message, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	raw, err := s.client.LRange(ctx, redisKeyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: load %s: %w", sessionID, err)
	}
	msgs := make([]chat.Message, 0, len(raw))
	for _, item := range raw {
		var m chat.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("history: decode message for %s: %w", sessionID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if len(msgs) == 0 {
		return nil
	}
	key := redisKeyPrefix + sessionID
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		m.SessionID = sessionID
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("history: encode message: %w", err)
		}
		values = append(values, data)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("history: append %s: %w", sessionID, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
