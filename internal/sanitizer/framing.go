package sanitizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrInvalidType is returned for chunk types lacking DataPrefix.
	ErrInvalidType = errors.New("chunk type must start with " + DataPrefix)
	// ErrInvalidIndex is returned by Encode for a negative stream index.
	ErrInvalidIndex = errors.New("chunk index must be non-negative")
)

// NewDataPart marshals data into a chunk of the given type.
func NewDataPart(typ string, data any) (DataPart, error) {
	if !strings.HasPrefix(typ, DataPrefix) {
		return DataPart{}, ErrInvalidType
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return DataPart{}, fmt.Errorf("marshal %s data: %w", typ, err)
	}
	return DataPart{Type: typ, Data: raw}, nil
}

type wireChunk struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode renders part the way a backend terminates a text segment:
// "<index>:<json>\n".
func Encode(index int, part DataPart) (string, error) {
	if index < 0 {
		return "", ErrInvalidIndex
	}
	if !strings.HasPrefix(part.Type, DataPrefix) {
		return "", ErrInvalidType
	}
	data := part.Data
	if data == nil {
		data = json.RawMessage("null")
	}
	b, err := json.Marshal(wireChunk{Type: part.Type, Data: data})
	if err != nil {
		return "", fmt.Errorf("encode chunk: %w", err)
	}
	return fmt.Sprintf("%d:%s\n", index, b), nil
}

// Holdback returns how much of a still-growing text segment can be shown
// without risking display of a data chunk. Rendering stops before the first
// "<digits>:<ws>{" tag and before a trailing partial tag such as "12" or "12: ".
func Holdback(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != ':' {
			continue
		}
		start := digitRunStart(text[:i])
		if start == i {
			continue
		}
		rest := strings.TrimLeftFunc(text[i+1:], unicode.IsSpace)
		if rest == "" || rest[0] == '{' {
			return start
		}
	}
	return digitRunStart(text)
}
