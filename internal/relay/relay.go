package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/askyc/askyc-go/internal/metrics"
)

// ContentType is declared on every relayed response.
const ContentType = "text/plain; charset=utf-8"

// StreamPath is appended to the backend address.
const StreamPath = "/stream"

var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Relay forwards chat requests to a streaming backend and pipes the answer
// back untouched. It keeps no per-turn state.
type Relay struct {
	client *http.Client
	target string
	log    *zap.Logger
	tracer trace.Tracer
	stats  *metrics.Relay
}

type Option func(*Relay)

func WithClient(c *http.Client) Option {
	return func(r *Relay) { r.client = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) { r.log = l }
}

func WithStats(s *metrics.Relay) Option {
	return func(r *Relay) { r.stats = s }
}

// NewClient returns an HTTP client suited to long-lived streams: no overall
// timeout, only a bound on waiting for response headers.
func NewClient(headerTimeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: t}
}

func New(backendURL string, opts ...Option) *Relay {
	r := &Relay{
		client: NewClient(0),
		target: strings.TrimRight(backendURL, "/") + StreamPath,
		log:    zap.NewNop(),
		tracer: otel.Tracer("github.com/askyc/askyc-go/internal/relay"),
		stats:  &metrics.Relay{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Target is the upstream URL requests are sent to.
func (r *Relay) Target() string {
	return r.target
}

// Stats returns the relay counters.
func (r *Relay) Stats() *metrics.Relay {
	return r.stats
}

// Forward posts body to the backend and returns the response with its body
// unread. The caller must close it.
func (r *Relay) Forward(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// Serve relays one turn into w. The upstream status is propagated as is and
// its body is flushed to w read by read. An unreachable upstream yields
// 502 with an empty body. Cancelling ctx aborts the upstream request.
func (r *Relay) Serve(ctx context.Context, w http.ResponseWriter, body []byte) error {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "relay.turn", trace.WithAttributes(
		attribute.String("relay.target", r.target),
		attribute.Int("relay.request_bytes", len(body)),
	))
	defer span.End()

	w.Header().Set("Content-Type", ContentType)

	resp, err := r.Forward(ctx, body)
	if err != nil {
		r.stats.AddTurn(0, true)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream unavailable")
		r.log.Warn("upstream unavailable", zap.String("target", r.target), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		return err
	}
	defer resp.Body.Close()

	w.WriteHeader(resp.StatusCode)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	n, err := Pipe(w, resp.Body)
	failed := err != nil || resp.StatusCode >= http.StatusBadRequest
	r.stats.AddTurn(n, failed)
	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int64("relay.response_bytes", n),
	)

	fields := []zap.Field{
		zap.Int("status", resp.StatusCode),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream interrupted")
		r.log.Warn("stream interrupted", append(fields, zap.Error(err))...)
		return fmt.Errorf("relay stream: %w", err)
	}
	if failed {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	r.log.Info("relayed turn", fields...)
	return nil
}

// Pipe copies src to dst, flushing dst after every read when it supports it.
func Pipe(dst io.Writer, src io.Reader) (int64, error) {
	flusher, _ := dst.(http.Flusher)
	buf := make([]byte, 32*1024)
	var n int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			n += int64(nw)
			if werr != nil {
				return n, werr
			}
			if nw != nr {
				return n, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr == io.EOF {
			return n, nil
		}
		if rerr != nil {
			return n, rerr
		}
	}
}
