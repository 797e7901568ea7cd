package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/karan-callify/backend/internal/callflow"
	"github.com/karan-callify/backend/internal/hermes"
	"github.com/karan-callify/backend/internal/metrics"
	"github.com/karan-callify/backend/internal/reqlog"
	"github.com/karan-callify/backend/internal/store"
	"github.com/karan-callify/backend/internal/uploads"
)

// Generator produces call scripts and emails.
type Generator interface {
	ProcessCallScript(ctx context.Context, req callflow.Request) callflow.Result[callflow.CallScriptPayload]
	ProcessEmail(ctx context.Context, req callflow.Request) callflow.Result[callflow.EmailPayload]
}

// LogQuerier reads persisted request logs.
type LogQuerier interface {
	QueryRequestLogs(ctx context.Context, f store.LogFilter) ([]reqlog.Record, error)
}

// EventPublisher announces finished generations.
type EventPublisher interface {
	PublishGenerated(ctx context.Context, subject string, evt hermes.GenerationEvent)
}

// Deps are the collaborators behind the routes. Generator and Stager are
// required; the rest may be nil.
type Deps struct {
	Generator Generator
	Stager    uploads.Stager
	LogSink   reqlog.Sink
	Logs      LogQuerier
	Events    EventPublisher
	Logger    *slog.Logger
}

type Server struct {
	router  *chi.Mux
	httpSrv *http.Server
	deps    Deps
	logger  *slog.Logger
}

func NewServer(port int, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Use(reqlog.Middleware(deps.LogSink, logger))
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		httpSrv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", metrics.Handler())
	router.Route("/api/v1/process_calls", func(r chi.Router) {
		r.Get("/health", s.processCallsHealth)
		r.Post("/convocall", s.convocall)
		r.Post("/convocall-email", s.convocallEmail)
	})
	router.Get("/api/v1/logs", s.queryLogs)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown waits for in-flight generations up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) processCallsHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is running"})
}

func (s *Server) convocall(w http.ResponseWriter, r *http.Request) {
	handleGeneration(s, w, r, hermes.SubjectCallScriptGenerated, s.deps.Generator.ProcessCallScript)
}

func (s *Server) convocallEmail(w http.ResponseWriter, r *http.Request) {
	handleGeneration(s, w, r, hermes.SubjectEmailGenerated, s.deps.Generator.ProcessEmail)
}

func handleGeneration[T any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	subject string,
	run func(context.Context, callflow.Request) callflow.Result[T],
) {
	ctx := r.Context()

	form, err := parseGenerationForm(r)
	if err != nil {
		var verr *formValidationError
		if errors.As(err, &verr) {
			s.logger.WarnContext(ctx, "invalid generation form", "error", err)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": verr.Errors})
			return
		}
		s.logger.WarnContext(ctx, "unreadable generation form", "error", err)
		writeDetail(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	reqlog.SetJobID(ctx, form.JobID)
	s.logger.InfoContext(ctx, "request received",
		"path", r.URL.Path, "job_id", form.JobID, "vendor_id", form.VendorID,
		"intent_id", form.IntentID, "language_code", form.LanguageCode, "has_file", form.File != nil)

	fileRef, err := s.stageUpload(ctx, form)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to stage upload", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}
	if fileRef != "" {
		defer func() {
			if err := s.deps.Stager.Remove(context.WithoutCancel(ctx), fileRef); err != nil {
				s.logger.WarnContext(ctx, "failed to remove staged upload", "file_ref", fileRef, "error", err)
			}
		}()
	}

	res := run(ctx, form.request(fileRef))
	if !res.Success {
		writeFailure(w, res.Kind, res.Error)
		return
	}

	if s.deps.Events != nil {
		_, translated := callflow.LanguageName(form.LanguageCode)
		s.deps.Events.PublishGenerated(ctx, subject, hermes.GenerationEvent{
			RequestID:    reqlog.RequestID(ctx),
			JobID:        form.JobID,
			VendorID:     form.VendorID,
			IntentID:     form.IntentID,
			LanguageCode: form.LanguageCode,
			Translated:   translated,
			Timestamp:    time.Now().UTC(),
		})
	}
	s.logger.InfoContext(ctx, "request completed", "path", r.URL.Path)
	writeJSON(w, http.StatusOK, res.Data)
}

func (s *Server) stageUpload(ctx context.Context, form *generationForm) (string, error) {
	if form.File == nil {
		return "", nil
	}
	defer form.File.Close()
	return s.deps.Stager.Stage(ctx, form.FileName, form.File)
}

func (s *Server) queryLogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Logs == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Request log store is not configured")
		return
	}

	q := r.URL.Query()
	f := store.LogFilter{
		Path:      q.Get("path"),
		JobID:     q.Get("job_id"),
		RequestID: q.Get("request_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	records, err := s.deps.Logs.QueryRequestLogs(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to query request logs", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to query request logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": records, "count": len(records)})
}

func writeFailure(w http.ResponseWriter, kind callflow.Kind, msg string) {
	status := http.StatusInternalServerError
	if kind == callflow.KindValidation {
		status = http.StatusBadRequest
	}
	writeDetail(w, status, msg)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
