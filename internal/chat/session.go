package chat

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/catalog"
	"github.com/askyc/askyc-go/internal/message"
	"github.com/askyc/askyc-go/internal/sanitizer"
	"github.com/askyc/askyc-go/internal/sources"
	"github.com/askyc/askyc-go/internal/stream"
)

// Streamer opens the answer stream for a chat request.
type Streamer interface {
	Stream(ctx context.Context, req message.ChatRequest) (io.ReadCloser, error)
}

// Renderer displays a turn as it arrives.
type Renderer interface {
	// Update receives the part of the assistant text that is safe to show so far.
	Update(id, visible string)
	// Complete receives the sanitized turn once the stream has ended.
	Complete(turn Turn)
}

// Turn is a completed assistant answer.
type Turn struct {
	// Message is the answer as streamed, data chunks included.
	Message  message.Message
	Parts    []message.Part
	Registry sanitizer.Registry
	Sources  []sources.Source
}

// Text returns the sanitized answer text.
func (t Turn) Text() string {
	return message.Message{Parts: t.Parts}.Text()
}

type Options struct {
	Model     string
	WebSearch bool
}

// Session is one conversation. History only grows.
type Session struct {
	streamer Streamer
	catalog  *catalog.Catalog
	log      *zap.Logger

	mu      sync.Mutex
	history []message.Message
}

func NewSession(s Streamer, cat *catalog.Catalog, log *zap.Logger) *Session {
	if cat == nil {
		cat = catalog.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{streamer: s, catalog: cat, log: log}
}

// History returns a copy of the messages exchanged so far.
func (s *Session) History() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Message(nil), s.history...)
}

// Send posts text with the whole history and assembles the answer. If the
// turn fails the user message stays in history and no answer is recorded.
func (s *Session) Send(ctx context.Context, text string, opts Options, r Renderer) (Turn, error) {
	model := s.catalog.Resolve(opts.Model)

	s.mu.Lock()
	s.history = append(s.history, message.NewUserText(text))
	req := message.ChatRequest{
		Messages:  append([]message.Message(nil), s.history...),
		Model:     model.Identifier,
		WebSearch: opts.WebSearch,
	}
	s.mu.Unlock()

	body, err := s.streamer.Stream(ctx, req)
	if err != nil {
		return Turn{}, fmt.Errorf("send: %w", err)
	}
	defer body.Close()

	asm := stream.Assembler{OnUpdate: func(m message.Message) {
		if r == nil || len(m.Parts) == 0 {
			return
		}
		t := m.Parts[0].Text
		r.Update(m.ID, t[:sanitizer.Holdback(t)])
	}}
	msg, err := asm.Assemble(ctx, message.NewID(), body)
	if err != nil {
		s.log.Warn("turn failed", zap.String("model", model.Identifier), zap.Error(err))
		return Turn{}, fmt.Errorf("receive: %w", err)
	}

	san := sanitizer.SanitizeMessage(msg)
	turn := Turn{
		Message:  msg,
		Parts:    san.Parts,
		Registry: san.Registry,
		Sources:  sources.FromRegistry(san.Registry),
	}

	s.mu.Lock()
	s.history = append(s.history, msg)
	s.mu.Unlock()

	s.log.Debug("turn complete",
		zap.String("id", msg.ID),
		zap.String("model", model.Identifier),
		zap.Int("data_parts", len(san.Registry)),
	)
	if r != nil {
		r.Complete(turn)
	}
	return turn, nil
}
