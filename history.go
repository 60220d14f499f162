package reagent

import (
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Role tags the sender of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ChatMessageType converts the role to its langchaingo equivalent for building
// model requests.
func (r Role) ChatMessageType() llms.ChatMessageType {
	switch r {
	case RoleUser:
		return llms.ChatMessageTypeHuman
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeGeneric
	}
}

// Message is one role-tagged conversation entry.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// String renders the message for line-oriented display.
func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Role, m.Content)
}

// History is the durable, append-only log of conversation turns owned by an
// agent instance. It outlives individual runs and records only the user input
// and the final answer, never the intra-run trajectory.
//
// History assumes one run at a time per agent instance and is not internally
// synchronized.
type History struct {
	messages []Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{messages: make([]Message, 0)}
}

// Append adds a message with the current timestamp.
func (h *History) Append(role Role, content string) {
	h.messages = append(h.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  map[string]any{},
	})
}

// AppendMessage adds a fully-formed message. A zero timestamp is filled in.
func (h *History) AppendMessage(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Metadata == nil {
		msg.Metadata = map[string]any{}
	}
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of all recorded messages in order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of recorded messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Clear removes all recorded messages. This is the only way to shrink a
// History.
func (h *History) Clear() {
	h.messages = h.messages[:0]
}
