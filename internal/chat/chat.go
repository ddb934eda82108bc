// Package chat stores the conversation of one dashboard session.
//
// History is append-only: messages are never edited or removed, and every
// read returns a copy in insertion order.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorPrefix marks an assistant message that records a failed oracle call.
const ErrorPrefix = "Bot: Error - "

// Message is a single chat entry.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UserMessage builds a user message stamped with the current time.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

// AssistantMessage builds an assistant message stamped with the current time.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now()}
}

// History is the ordered message log of a session.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// Append adds msg to the end of the history.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// All returns a copy of every message in insertion order.
func (h *History) All() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copied := make([]Message, len(h.messages))
	copy(copied, h.messages)
	return copied
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Session pairs a history with a stable identifier.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	History   *History  `json:"-"`
}

// NewSession creates an empty session with a UUIDv7 identifier.
func NewSession() *Session {
	return &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CreatedAt: time.Now(),
		History:   &History{},
	}
}
