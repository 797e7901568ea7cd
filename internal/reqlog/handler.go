// Package reqlog collects the log records emitted while serving one HTTP
// request so they can be persisted alongside the request.
package reqlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type Entry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	JobID     string    `json:"job_id,omitempty"`
}

// Buffer holds the entries for a single request.
type Buffer struct {
	mu      sync.Mutex
	jobID   string
	entries []Entry
}

func (b *Buffer) SetJobID(id string) {
	b.mu.Lock()
	b.jobID = id
	b.mu.Unlock()
}

func (b *Buffer) JobID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jobID
}

func (b *Buffer) add(e Entry) {
	b.mu.Lock()
	if e.JobID == "" {
		e.JobID = b.jobID
	}
	b.entries = append(b.entries, e)
	b.mu.Unlock()
}

// Entries returns a copy of everything buffered so far.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

type ctxKey struct{}

func WithBuffer(ctx context.Context, b *Buffer) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the request buffer, or nil outside a request.
func FromContext(ctx context.Context) *Buffer {
	if ctx == nil {
		return nil
	}
	b, _ := ctx.Value(ctxKey{}).(*Buffer)
	return b
}

// Handler forwards every record to next and also appends it to the request
// buffer carried by the record's context, if any.
type Handler struct {
	next  slog.Handler
	attrs []slog.Attr
	group string
}

func NewHandler(next slog.Handler) *Handler {
	return &Handler{next: next}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if b := FromContext(ctx); b != nil {
		b.add(h.entry(r))
	}
	return h.next.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		next:  h.next.WithAttrs(attrs),
		attrs: append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...),
		group: h.group,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	g := name
	if h.group != "" {
		g = h.group + "." + name
	}
	return &Handler{next: h.next.WithGroup(name), attrs: h.attrs, group: g}
}

func (h *Handler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

func (h *Handler) entry(r slog.Record) Entry {
	e := Entry{Level: r.Level.String(), Timestamp: r.Time.UTC()}

	var sb strings.Builder
	sb.WriteString(r.Message)
	write := func(a slog.Attr) {
		if a.Key == "job_id" {
			e.JobID = a.Value.String()
		}
		fmt.Fprintf(&sb, " %s=%v", a.Key, a.Value.Resolve())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		write(a)
		return true
	})
	e.Message = sb.String()
	return e
}
