package sanitizer

import (
	"encoding/json"
	"strings"
	"unicode"
)

// DataPrefix marks a chunk type as structured data rather than narrative.
const DataPrefix = "data-"

// DataPart is a structured chunk carried at the tail of a text segment.
type DataPart struct {
	Type string
	Data json.RawMessage
}

// Decode unmarshals the chunk's data field into v.
func (p DataPart) Decode(v any) error {
	return json.Unmarshal(p.Data, v)
}

// Result is the outcome of Extract. Part is nil when no chunk was found.
type Result struct {
	Text string
	Part *DataPart
}

// Extract splits a trailing "<index>: {json}" chunk off text.
//
// Only the rightmost chunk anchored at the end of text (trailing whitespace
// allowed) is considered. A candidate that is not valid JSON, or whose object
// lacks a data-prefixed string type or a data field, leaves text untouched.
func Extract(text string) Result {
	body := strings.TrimRightFunc(text, unicode.IsSpace)
	if !strings.HasSuffix(body, "}") {
		return Result{Text: text}
	}

	// At most one '{' can start a valid object that ends exactly at the end of
	// body, so the first tagged, valid candidate from the right is the match.
	for open := strings.LastIndexByte(body, '{'); open >= 0; open = strings.LastIndexByte(body[:open], '{') {
		start, ok := tagStart(body[:open])
		if !ok {
			continue
		}
		candidate := body[open:]
		if !json.Valid([]byte(candidate)) {
			continue
		}
		part, ok := decode(candidate)
		if !ok {
			return Result{Text: text}
		}
		return Result{
			Text: strings.TrimRightFunc(text[:start], unicode.IsSpace),
			Part: part,
		}
	}
	return Result{Text: text}
}

// tagStart reports where the "<digits>:<ws>" tag ending prefix begins.
func tagStart(prefix string) (int, bool) {
	prefix = strings.TrimRightFunc(prefix, unicode.IsSpace)
	if !strings.HasSuffix(prefix, ":") {
		return 0, false
	}
	end := len(prefix) - 1
	start := digitRunStart(prefix[:end])
	if start == end {
		return 0, false
	}
	return start, true
}

// digitRunStart returns the index of the ASCII digit run that ends s.
// It returns len(s) when s does not end with a digit.
func digitRunStart(s string) int {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return i
}

func decode(candidate string) (*DataPart, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil || fields == nil {
		return nil, false
	}
	rawType, ok := fields["type"]
	if !ok {
		return nil, false
	}
	var typ string
	if err := json.Unmarshal(rawType, &typ); err != nil || !strings.HasPrefix(typ, DataPrefix) {
		return nil, false
	}
	data, ok := fields["data"]
	if !ok {
		return nil, false
	}
	return &DataPart{Type: typ, Data: data}, true
}
