package echo

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/message"
	"github.com/askyc/askyc-go/internal/sanitizer"
	"github.com/askyc/askyc-go/internal/sources"
)

// sourcesIndex is the tag the backend puts in front of the sources chunk.
const sourcesIndex = 2

// Backend streams back the last user message word by word, optionally
// followed by a sources chunk. It speaks the same contract as the real
// backend and is meant for local runs and tests.
type Backend struct {
	sources []sources.Source
	delay   time.Duration
	log     *zap.Logger
}

type Option func(*Backend)

func WithSources(s []sources.Source) Option {
	return func(b *Backend) { b.sources = s }
}

// WithDelay pauses between words.
func WithDelay(d time.Duration) Option {
	return func(b *Backend) { b.delay = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) { b.log = l }
}

func New(opts ...Option) *Backend {
	b := &Backend{log: zap.NewNop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Handler routes POST /stream to the backend.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /stream", b)
	return mux
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req message.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid chat request", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	words := strings.Fields("Echo: " + lastUserText(req.Messages))
	for i, word := range words {
		if i > 0 {
			io.WriteString(w, " ")
		}
		io.WriteString(w, word)
		flush()
		if b.delay > 0 && i < len(words)-1 {
			select {
			case <-time.After(b.delay):
			case <-r.Context().Done():
				return
			}
		}
	}

	if len(b.sources) == 0 {
		return
	}
	part, err := sources.Part(b.sources)
	if err != nil {
		b.log.Error("build sources chunk", zap.Error(err))
		return
	}
	line, err := sanitizer.Encode(sourcesIndex, part)
	if err != nil {
		b.log.Error("encode sources chunk", zap.Error(err))
		return
	}
	// A newline keeps a trailing number in the answer from merging with the tag.
	io.WriteString(w, "\n"+line)
	flush()
}

func lastUserText(msgs []message.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == message.RoleUser {
			return msgs[i].Text()
		}
	}
	return ""
}
