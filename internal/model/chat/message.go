package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem is accepted in incoming history but never produced by the chat flow.
	RoleSystem Role = "system"
)

// Valid reports whether the role is one the wire protocol accepts.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// GreetingID is the fixed identifier of the seeded welcome message.
const GreetingID = "0"

// Message is a single immutable conversation turn.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a fresh message with a time-ordered id.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        newMessageID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Transcript is the ordered message log owned by one visitor.
type Transcript []Message

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	copied := make(Transcript, len(t))
	copy(copied, t)
	return copied
}

// Append returns a new transcript with msgs added at the end. t is left untouched.
func (t Transcript) Append(msgs ...Message) Transcript {
	out := make(Transcript, 0, len(t)+len(msgs))
	out = append(out, t...)
	return append(out, msgs...)
}

// Last returns the final message, if any.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// Equal compares transcripts turn by turn: id, role, content and timestamp.
// Timestamps are compared as instants, ignoring location and monotonic reading.
func (t Transcript) Equal(other Transcript) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i].ID != other[i].ID || t[i].Role != other[i].Role ||
			t[i].Content != other[i].Content || !t[i].Timestamp.Equal(other[i].Timestamp) {
			return false
		}
	}
	return true
}

// NonEmpty reports whether content carries anything besides whitespace.
func NonEmpty(content string) bool {
	return strings.TrimSpace(content) != ""
}
