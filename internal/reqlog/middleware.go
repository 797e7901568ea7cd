package reqlog

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Record is one persisted request with its buffered logs.
type Record struct {
	RequestID  string    `json:"request_id"`
	JobID      string    `json:"job_id,omitempty"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	StatusCode int       `json:"status_code"`
	Logs       []Entry   `json:"logs"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sink persists request records.
type Sink interface {
	InsertRequestLog(ctx context.Context, rec Record) error
}

const (
	HeaderRequestID = "X-Request-ID"
	flushTimeout    = 5 * time.Second
)

type requestIDKey struct{}

// RequestID returns the id assigned by Middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// SetJobID records the job id once the handler has parsed the request form.
func SetJobID(ctx context.Context, id string) {
	if b := FromContext(ctx); b != nil && id != "" {
		b.SetJobID(id)
	}
}

// Middleware gives each request an id and a log buffer, then flushes the
// buffer to sink after the handler returns. sink may be nil.
func Middleware(sink Sink, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			buf := &Buffer{}
			buf.SetJobID(jobIDFromRequest(r))

			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, requestID)
			ctx = WithBuffer(ctx, buf)

			w.Header().Set(HeaderRequestID, requestID)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if sink == nil {
				return
			}
			entries := buf.Entries()
			if len(entries) == 0 {
				return
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			rec := Record{
				RequestID:  requestID,
				JobID:      buf.JobID(),
				Path:       r.URL.Path,
				Method:     r.Method,
				StatusCode: status,
				Logs:       entries,
				CreatedAt:  time.Now().UTC(),
			}

			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), flushTimeout)
			defer cancel()
			if err := sink.InsertRequestLog(flushCtx, rec); err != nil {
				// Plain context so this record does not land in a buffer.
				logger.Error("failed to persist request logs", "request_id", requestID, "error", err)
			}
		})
	}
}

// jobIDFromRequest looks at the query string and headers. Form bodies are
// left for the handler to parse; it reports the id through SetJobID.
func jobIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get("job_id"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Job-ID"); id != "" {
		return id
	}
	return r.Header.Get("job_id")
}
