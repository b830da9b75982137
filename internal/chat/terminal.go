package chat

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Terminal renders turns as plain text.
type Terminal struct {
	w       io.Writer
	current string
	printed int
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Update prints the new part of visible. Trailing whitespace waits for the
// next non-space so the final trimmed text never falls behind the screen.
func (t *Terminal) Update(id, visible string) {
	visible = strings.TrimRightFunc(visible, unicode.IsSpace)
	if id != t.current {
		t.current = id
		t.printed = 0
	}
	if len(visible) > t.printed {
		io.WriteString(t.w, visible[t.printed:])
		t.printed = len(visible)
	}
}

func (t *Terminal) Complete(turn Turn) {
	if turn.Message.ID != t.current {
		t.printed = 0
	}
	text := turn.Text()
	if len(text) > t.printed {
		io.WriteString(t.w, text[t.printed:])
	}
	io.WriteString(t.w, "\n")
	if len(turn.Sources) > 0 {
		fmt.Fprintf(t.w, "\nSources (%d):\n", len(turn.Sources))
		for i, s := range turn.Sources {
			fmt.Fprintf(t.w, "  [%d] %s <%s>\n", i+1, s.Title, s.URL)
		}
	}
	t.current = ""
	t.printed = 0
}
