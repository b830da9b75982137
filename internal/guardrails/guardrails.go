package guardrails

import (
	"bytes"
	"encoding/json"
	"errors"
)

var (
	ErrEmptyBody    = errors.New("request body is empty")
	ErrInvalidJSON  = errors.New("request body is not valid JSON")
	ErrBodyTooLarge = errors.New("request body too large")
)

// DefaultMaxBody is used when no limit is configured.
const DefaultMaxBody = 1 << 20

// Guardrails checks inbound bodies before they reach the relay.
// It never looks at the body's schema.
type Guardrails struct {
	maxBody int64
}

func New(maxBody int64) *Guardrails {
	if maxBody <= 0 {
		maxBody = DefaultMaxBody
	}
	return &Guardrails{maxBody: maxBody}
}

// MaxBody is the largest body CheckBody accepts.
func (g *Guardrails) MaxBody() int64 {
	return g.maxBody
}

// CheckBody returns an error if body is empty, too large or not JSON.
func (g *Guardrails) CheckBody(body []byte) error {
	if int64(len(body)) > g.maxBody {
		return ErrBodyTooLarge
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}
	if !json.Valid(body) {
		return ErrInvalidJSON
	}
	return nil
}
