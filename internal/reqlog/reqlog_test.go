package reqlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	records []Record
	err     error
}

func (m *memorySink) InsertRequestLog(_ context.Context, rec Record) error {
	m.records = append(m.records, rec)
	return m.err
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(NewHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

func TestHandler_TeesIntoBuffer(t *testing.T) {
	var out bytes.Buffer
	logger := newLogger(&out)

	buf := &Buffer{}
	buf.SetJobID("job-7")
	ctx := WithBuffer(context.Background(), buf)

	logger.InfoContext(ctx, "generating", "vendor_id", "1")
	logger.DebugContext(ctx, "hidden")
	logger.Info("no request")

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "generating vendor_id=1", entries[0].Message)
	assert.Equal(t, "job-7", entries[0].JobID)
	assert.False(t, entries[0].Timestamp.IsZero())

	assert.Contains(t, out.String(), `"msg":"generating"`)
	assert.Contains(t, out.String(), `"msg":"no request"`)
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	logger := newLogger(io.Discard).With("component", "api").WithGroup("req")

	buf := &Buffer{}
	ctx := WithBuffer(context.Background(), buf)
	logger.WarnContext(ctx, "slow", "ms", 900, "job_id", "j1")

	entries := buf.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "slow component=api req.ms=900 req.job_id=j1", entries[0].Message)
}

func TestMiddleware_FlushesBufferedLogs(t *testing.T) {
	sink := &memorySink{}
	logger := newLogger(io.Discard)

	h := Middleware(sink, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestID(r.Context()))
		SetJobID(r.Context(), "from-form")
		logger.InfoContext(r.Context(), "handled")
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process_calls/convocall?job_id=from-query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Len(t, sink.records, 1)
	got := sink.records[0]
	assert.Equal(t, rec.Header().Get(HeaderRequestID), got.RequestID)
	assert.Equal(t, "from-form", got.JobID)
	assert.Equal(t, "/api/v1/process_calls/convocall", got.Path)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, http.StatusTeapot, got.StatusCode)
	require.Len(t, got.Logs, 1)
	assert.Equal(t, "handled", got.Logs[0].Message)
	assert.Equal(t, "from-form", got.Logs[0].JobID)
}

func TestMiddleware_JobIDFromHeader(t *testing.T) {
	sink := &memorySink{}
	logger := newLogger(io.Discard)

	h := Middleware(sink, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "handled")
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Job-ID", "hdr-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, sink.records, 1)
	assert.Equal(t, "hdr-1", sink.records[0].JobID)
	assert.Equal(t, http.StatusOK, sink.records[0].StatusCode)
}

func TestMiddleware_SkipsEmptyBuffer(t *testing.T) {
	sink := &memorySink{}
	h := Middleware(sink, newLogger(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, sink.records)
}

func TestMiddleware_SinkFailureDoesNotAffectResponse(t *testing.T) {
	sink := &memorySink{err: errors.New("db down")}
	logger := newLogger(io.Discard)
	h := Middleware(sink, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "handled")
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddleware_NilSink(t *testing.T) {
	h := Middleware(nil, newLogger(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
