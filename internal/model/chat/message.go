package chat

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Role tags a message author. Checked by tag, never by runtime type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a structured tool-invocation request attached to an
// assistant message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of a conversation transcript. Immutable once
// appended; a tool message carries the ToolCallID of the assistant
// request it answers.
type Message struct {
	ID         string     `json:"id,omitempty"`
	SessionID  string     `json:"sessionId,omitempty"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt,omitempty"`
}

// HasToolCalls reports whether the message carries tool-invocation
// requests (i.e. it is a retrieval decision message).
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// ToSchema converts a transcript message into the eino wire form.
func (m Message) ToSchema() *schema.Message {
	msg := &schema.Message{
		Role:       schema.RoleType(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID: tc.ID,
			Function: schema.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}

// FromSchema converts an eino message back into the transcript form.
func FromSchema(msg *schema.Message) Message {
	m := Message{
		Role:       Role(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return m
}

// ToSchemaMessages converts a whole transcript, preserving order.
func ToSchemaMessages(history []Message) []*schema.Message {
	if len(history) == 0 {
		return nil
	}
	out := make([]*schema.Message, 0, len(history))
	for _, m := range history {
		out = append(out, m.ToSchema())
	}
	return out
}
