package chat

import "time"

// Session identifies a durable conversation across turns.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
