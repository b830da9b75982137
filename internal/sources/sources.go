package sources

import (
	"strings"

	"github.com/askyc/askyc-go/internal/sanitizer"
)

// Type is the registry key carrying citation data.
const Type = "data-sources"

// Source is one citation shown next to an answer.
type Source struct {
	Title string
	URL   string
}

type payload struct {
	Videos []string `json:"videos"`
	URLs   []string `json:"urls"`
}

// FromRegistry returns the citations filed under Type, or nil.
// Labels and links are paired by position; a missing link renders as "#".
func FromRegistry(reg sanitizer.Registry) []Source {
	part, ok := reg.Get(Type)
	if !ok {
		return nil
	}
	var p payload
	if err := part.Decode(&p); err != nil {
		return nil
	}
	if len(p.Videos) == 0 {
		return nil
	}
	out := make([]Source, 0, len(p.Videos))
	for i, v := range p.Videos {
		url := "#"
		if i < len(p.URLs) && p.URLs[i] != "" {
			url = p.URLs[i]
		}
		out = append(out, Source{Title: strings.TrimSuffix(v, ".txt"), URL: url})
	}
	return out
}

// Part builds the data chunk a backend emits for list. Repeated
// (title, url) pairs are sent once, in order of first appearance.
func Part(list []Source) (sanitizer.DataPart, error) {
	p := payload{Videos: make([]string, 0, len(list)), URLs: make([]string, 0, len(list))}
	seen := make(map[Source]struct{}, len(list))
	for _, s := range list {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		p.Videos = append(p.Videos, s.Title)
		p.URLs = append(p.URLs, s.URL)
	}
	return sanitizer.NewDataPart(Type, p)
}
