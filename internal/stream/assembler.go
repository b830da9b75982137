package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/askyc/askyc-go/internal/message"
)

const defaultReadSize = 4096

// Assembler rebuilds an assistant message from a plain-text stream: the
// whole body is a single text part.
type Assembler struct {
	// OnUpdate, when set, receives a snapshot each time the text grows.
	OnUpdate func(message.Message)
	// ReadSize bounds a single read. Zero means 4 KiB.
	ReadSize int
}

// Assemble reads r until EOF and returns the completed message with id.
// Reads never split a UTF-8 sequence across two updates. A read error fails
// the turn; the partial message is not returned.
func (a *Assembler) Assemble(ctx context.Context, id string, r io.Reader) (message.Message, error) {
	size := a.ReadSize
	if size <= 0 {
		size = defaultReadSize
	}
	msg := message.Message{ID: id, Role: message.RoleAssistant}
	var (
		text    strings.Builder
		pending []byte
		buf     = make([]byte, size)
	)
	for {
		if err := ctx.Err(); err != nil {
			return message.Message{}, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			cut := completePrefix(pending)
			if cut > 0 {
				text.Write(pending[:cut])
				pending = append(pending[:0], pending[cut:]...)
				a.emit(&msg, text.String(), message.StateStreaming)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return message.Message{}, err
		}
	}

	text.Write(pending)
	if text.Len() > 0 {
		a.emit(&msg, text.String(), message.StateDone)
	}
	return msg, nil
}

func (a *Assembler) emit(msg *message.Message, text, state string) {
	if len(msg.Parts) == 0 {
		msg.Parts = []message.Part{{Type: message.PartText}}
	}
	msg.Parts[0].Text = text
	msg.Parts[0].State = state
	if a.OnUpdate != nil {
		snap := *msg
		snap.Parts = append([]message.Part(nil), msg.Parts...)
		a.OnUpdate(snap)
	}
}

// completePrefix returns the length of b that ends on a rune boundary.
func completePrefix(b []byte) int {
	// A rune is at most utf8.UTFMax bytes, so only the tail needs a look.
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
