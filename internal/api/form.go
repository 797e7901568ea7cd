package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/karan-callify/backend/internal/callflow"
)

const (
	maxFormMemory = 32 << 20
	fileField     = "jdfile"
)

var formFields = []string{"job_id", "transcript_text", "env", "vendor_id", "intent_id", "language_code"}

var generationFormSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["transcript_text", "env"],
	"properties": {
		"job_id":          {"type": "string"},
		"transcript_text": {"type": "string"},
		"env":             {"type": "string"},
		"vendor_id":       {"type": "string"},
		"intent_id":       {"type": "string"},
		"language_code":   {"type": "string", "enum": ["en", "pt", "es"]}
	}
}`)

// FieldError is one schema violation, shaped like a FastAPI validation error.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

type formValidationError struct {
	Errors []FieldError
}

func (e *formValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Msg
	}
	return "form validation failed: " + strings.Join(msgs, "; ")
}

type generationForm struct {
	JobID          string
	TranscriptText string
	Env            string
	VendorID       string
	IntentID       string
	LanguageCode   string

	File     multipart.File
	FileName string
}

func (f *generationForm) request(fileRef string) callflow.Request {
	return callflow.Request{
		TranscriptText: f.TranscriptText,
		FileRef:        fileRef,
		Environment:    f.Env,
		VendorID:       f.VendorID,
		IntentID:       f.IntentID,
		LanguageCode:   f.LanguageCode,
	}
}

// parseGenerationForm reads a multipart or urlencoded body. A schema
// violation is returned as *formValidationError.
func parseGenerationForm(r *http.Request) (*generationForm, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	doc := make(map[string]any, len(formFields))
	for _, name := range formFields {
		if _, ok := r.PostForm[name]; ok {
			doc[name] = r.PostForm.Get(name)
		}
	}
	if err := validateForm(doc); err != nil {
		return nil, err
	}

	f := &generationForm{
		JobID:          stringOr(doc, "job_id", ""),
		TranscriptText: stringOr(doc, "transcript_text", ""),
		Env:            stringOr(doc, "env", ""),
		VendorID:       stringOr(doc, "vendor_id", "1"),
		IntentID:       stringOr(doc, "intent_id", "1"),
		LanguageCode:   stringOr(doc, "language_code", "en"),
	}

	file, header, err := r.FormFile(fileField)
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", fileField, err)
	case header.Filename == "":
		file.Close()
	default:
		f.File = file
		f.FileName = header.Filename
	}
	return f, nil
}

func validateForm(doc map[string]any) error {
	result, err := gojsonschema.Validate(generationFormSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &formValidationError{}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if p, ok := desc.Details()["property"].(string); ok && desc.Type() == "required" {
			field = p
		}
		verr.Errors = append(verr.Errors, FieldError{
			Loc:  []string{"body", field},
			Msg:  desc.Description(),
			Type: desc.Type(),
		})
	}
	return verr
}

func stringOr(doc map[string]any, key, fallback string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return fallback
}
