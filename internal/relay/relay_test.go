package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestServeForwardsVerbatim(t *testing.T) {
	const body = `{"model": "x" ,  "messages":[{"id":"1","role":"user","parts":[]}]}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, StreamPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		got, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, body, string(got))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "Hello 2:{\"type\":\"data-sources\",\"data\":{}}\n")
	}))
	defer upstream.Close()

	r := New(upstream.URL + "/")
	rec := httptest.NewRecorder()
	err := r.Serve(context.Background(), rec, []byte(body))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "Hello 2:{\"type\":\"data-sources\",\"data\":{}}\n", rec.Body.String())
	assert.True(t, rec.Flushed)

	snap := r.Stats().Snapshot()
	assert.Equal(t, int64(1), snap.Turns)
	assert.Equal(t, int64(0), snap.Failures)
	assert.Equal(t, int64(rec.Body.Len()), snap.Bytes)
}

func TestServePropagatesUpstreamStatusWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	r := New(upstream.URL)
	rec := httptest.NewRecorder()
	err := r.Serve(context.Background(), rec, []byte(`{"model":"x"}`))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, int64(1), r.Stats().Snapshot().Failures)
}

func TestServeUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	r := New(addr)
	rec := httptest.NewRecorder()
	err := r.Serve(context.Background(), rec, []byte(`{}`))

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, int64(1), r.Stats().Snapshot().Failures)
}

func TestServeStreamsBeforeUpstreamCompletes(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "Hello ")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		io.WriteString(w, "world")
	}))
	defer upstream.Close()

	r := New(upstream.URL)
	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		_ = r.Serve(req.Context(), w, body)
	}))
	defer front.Close()

	resp, err := http.Post(front.URL, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	first := make([]byte, len("Hello "))
	_, err = io.ReadFull(resp.Body, first)
	require.NoError(t, err)
	assert.Equal(t, "Hello ", string(first))

	close(release)
	rest, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "world", string(rest))
	assert.Equal(t, ContentType, resp.Header.Get("Content-Type"))
}

func TestServeStopsWhenClientGoes(t *testing.T) {
	wrote := make(chan struct{})
	upstreamGone := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		close(wrote)
		<-r.Context().Done()
		close(upstreamGone)
	}))
	defer upstream.Close()

	r := New(upstream.URL)
	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	errCh := make(chan error, 1)
	go func() { errCh <- r.Serve(ctx, rec, []byte(`{}`)) }()

	<-wrote
	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay kept forwarding after cancellation")
	}
	select {
	case <-upstreamGone:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not aborted")
	}
	assert.Equal(t, int64(1), r.Stats().Snapshot().Failures)
}

type flushCounter struct {
	strings.Builder
	flushes int
}

func (f *flushCounter) Flush() { f.flushes++ }

func TestPipeFlushesEveryRead(t *testing.T) {
	dst := &flushCounter{}
	n, err := Pipe(dst, iotest.OneByteReader(strings.NewReader("abc")))

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "abc", dst.String())
	assert.Equal(t, 3, dst.flushes)
}

func TestPipeReturnsReadError(t *testing.T) {
	boom := errors.New("boom")
	src := io.MultiReader(strings.NewReader("ab"), iotest.ErrReader(boom))

	n, err := Pipe(io.Discard, src)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), n)
}
