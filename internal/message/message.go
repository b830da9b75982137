package message

import "github.com/google/uuid"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType tags a message part.
type PartType string

const (
	PartText      PartType = "text"
	PartReasoning PartType = "reasoning"
)

// Part states while a turn is being assembled.
const (
	StateStreaming = "streaming"
	StateDone      = "done"
)

// Part is one piece of a message.
type Part struct {
	Type  PartType `json:"type"`
	Text  string   `json:"text,omitempty"`
	State string   `json:"state,omitempty"`
}

// Message represents a chat message.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// ChatRequest is the body the client posts to the relay.
type ChatRequest struct {
	Messages  []Message `json:"messages"`
	Model     string    `json:"model,omitempty"`
	WebSearch bool      `json:"webSearch,omitempty"`
}

// NewID returns a fresh message identifier.
func NewID() string {
	return uuid.NewString()
}

// NewUserText builds a single-part user message.
func NewUserText(text string) Message {
	return Message{
		ID:    NewID(),
		Role:  RoleUser,
		Parts: []Part{{Type: PartText, Text: text, State: StateDone}},
	}
}

// Text joins the content of all text parts with a space.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type != PartText || p.Text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p.Text
	}
	return out
}
