package callflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karan-callify/backend/internal/docextract"
	"github.com/karan-callify/backend/internal/llm"
	"github.com/karan-callify/backend/internal/metrics"
)

// minFileRefLen is the shortest stored file name worth sending to the
// extractor. Anything shorter cannot be a uuid plus extension.
const minFileRefLen = 5

// Service runs the generation pipeline: document extraction, prompt
// selection, generation, normalization and optional translation.
type Service struct {
	llm        llm.Completer
	extractor  docextract.Extractor
	templates  *Templates
	normalizer Normalizer
	logger     *slog.Logger
}

var defaultTemplates = MustLoadTemplates()

// New returns a Service. extractor may be nil, in which case document text is
// always empty.
func New(completer llm.Completer, extractor docextract.Extractor, logger *slog.Logger) *Service {
	return &Service{
		llm:        completer,
		extractor:  extractor,
		templates:  defaultTemplates,
		normalizer: NewNormalizer(StripLegacy),
		logger:     logger,
	}
}

// SetStripMode switches how model output is cleaned before parsing.
func (s *Service) SetStripMode(mode StripMode) {
	s.normalizer = NewNormalizer(mode)
}

// BuildCallScript produces a call script for req. Errors are always *Failure.
func (s *Service) BuildCallScript(ctx context.Context, req Request) (*CallScriptPayload, error) {
	obj, err := s.buildCallScript(ctx, req)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("callscript", "error").Inc()
		s.logger.ErrorContext(ctx, "call script generation failed", "error", err)
		return nil, newFailure(err, msgCallScriptFailed)
	}
	metrics.GenerationsTotal.WithLabelValues("callscript", "ok").Inc()
	return callScriptFromObject(obj), nil
}

func (s *Service) buildCallScript(ctx context.Context, req Request) (map[string]any, error) {
	s.logger.InfoContext(ctx, "processing call script request",
		"vendor_id", req.VendorID, "intent_id", req.IntentID, "language_code", req.LanguageCode)

	gen := s.generationRequest(ctx, req)
	prompt, err := s.templates.CallScriptPrompt(gen)
	if err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, "callscript", systemCallFlow, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate call script: %w", err)
	}

	obj, err := s.normalizer.NormalizeCallScript(raw)
	if err != nil {
		return nil, err
	}

	language, ok := LanguageName(req.LanguageCode)
	if !ok {
		return obj, nil
	}

	s.logger.InfoContext(ctx, "translating call script", "language", language)
	translated, err := s.translate(ctx, obj, language)
	if err != nil {
		return nil, err
	}
	return RepairPreScreening(translated), nil
}

// BuildEmail produces an email for req. Errors are always *Failure.
func (s *Service) BuildEmail(ctx context.Context, req Request) (*EmailPayload, error) {
	obj, err := s.buildEmail(ctx, req)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("email", "error").Inc()
		s.logger.ErrorContext(ctx, "email generation failed", "error", err)
		return nil, newFailure(err, msgEmailFailed)
	}
	metrics.GenerationsTotal.WithLabelValues("email", "ok").Inc()
	return emailFromObject(obj), nil
}

func (s *Service) buildEmail(ctx context.Context, req Request) (map[string]any, error) {
	s.logger.InfoContext(ctx, "processing email request",
		"vendor_id", req.VendorID, "intent_id", req.IntentID, "language_code", req.LanguageCode)

	gen := s.generationRequest(ctx, req)
	prompt, err := s.templates.EmailPrompt(gen)
	if err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, "email", systemCallFlow, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate email: %w", err)
	}

	obj, err := s.normalizer.ParseObject(raw)
	if err != nil {
		return nil, err
	}

	language, ok := LanguageName(req.LanguageCode)
	if !ok {
		return obj, nil
	}

	s.logger.InfoContext(ctx, "translating email", "language", language)
	return s.translate(ctx, obj, language)
}

func (s *Service) generationRequest(ctx context.Context, req Request) GenerationRequest {
	return GenerationRequest{
		TranscriptText: req.TranscriptText,
		DocumentText:   s.documentText(ctx, req),
		VendorID:       req.VendorID,
		IntentID:       req.IntentID,
	}
}

// documentText resolves the job description text. Extraction problems are
// never fatal; they just leave the document empty.
func (s *Service) documentText(ctx context.Context, req Request) string {
	if s.extractor == nil || len(req.FileRef) < minFileRefLen {
		metrics.ExtractionsTotal.WithLabelValues("skipped").Inc()
		return ""
	}

	text := s.extractor.Extract(ctx, req.FileRef, req.Environment, docextract.KindJobDescription)
	if text == "" {
		metrics.ExtractionsTotal.WithLabelValues("empty").Inc()
		s.logger.WarnContext(ctx, "document extraction returned no text", "file_ref", req.FileRef)
		return ""
	}
	metrics.ExtractionsTotal.WithLabelValues("ok").Inc()
	s.logger.InfoContext(ctx, "document text extracted", "file_ref", req.FileRef, "chars", len(text))
	return text
}

func (s *Service) complete(ctx context.Context, purpose, system, prompt string) (string, error) {
	out, err := s.llm.Complete(ctx, system, llm.UserMessage(prompt))
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues(purpose, "error").Inc()
		return "", err
	}
	metrics.LLMCallsTotal.WithLabelValues(purpose, "ok").Inc()
	return out, nil
}
