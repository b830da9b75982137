package sanitizer

import (
	"slices"

	"github.com/askyc/askyc-go/internal/message"
)

// Registry maps a chunk type to the last chunk of that type seen in a message.
type Registry map[string]DataPart

// Get returns the chunk filed under typ.
func (r Registry) Get(typ string) (DataPart, bool) {
	p, ok := r[typ]
	return p, ok
}

// Sanitized is a message's parts with data chunks removed, plus the chunks.
type Sanitized struct {
	Parts    []message.Part
	Registry Registry
}

// SanitizeMessage strips trailing data chunks from every text part of an
// assistant message and files them by type, later chunks overwriting earlier
// ones. Other roles are returned untouched with an empty registry.
//
// msg.Parts is never modified. When no part changes, the same slice is
// returned.
func SanitizeMessage(msg message.Message) Sanitized {
	reg := Registry{}
	if msg.Role != message.RoleAssistant {
		return Sanitized{Parts: msg.Parts, Registry: reg}
	}

	parts := msg.Parts
	cloned := false
	for i, p := range msg.Parts {
		if p.Type != message.PartText {
			continue
		}
		res := Extract(p.Text)
		if res.Part != nil {
			reg[res.Part.Type] = *res.Part
		}
		if res.Text == p.Text {
			continue
		}
		if !cloned {
			parts = slices.Clone(msg.Parts)
			cloned = true
		}
		parts[i].Text = res.Text
	}
	return Sanitized{Parts: parts, Registry: reg}
}
