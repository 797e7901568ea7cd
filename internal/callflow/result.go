package callflow

import (
	"context"
	"errors"
)

// Result is the success/failure envelope handed to transports.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"-"`
}

// newResult reports fallback in place of the text of any error that is not a
// *Failure.
func newResult[T any](data *T, err error, fallback string) Result[T] {
	if err == nil {
		return Result[T]{Success: true, Data: data}
	}
	var f *Failure
	if !errors.As(err, &f) {
		f = &Failure{Kind: KindProcessing, Message: fallback, Err: err}
	}
	return Result[T]{Error: f.Message, Kind: f.Kind}
}

// ProcessCallScript wraps BuildCallScript in a Result.
func (s *Service) ProcessCallScript(ctx context.Context, req Request) Result[CallScriptPayload] {
	p, err := s.BuildCallScript(ctx, req)
	return newResult(p, err, msgCallScriptFailed)
}

// ProcessEmail wraps BuildEmail in a Result.
func (s *Service) ProcessEmail(ctx context.Context, req Request) Result[EmailPayload] {
	p, err := s.BuildEmail(ctx, req)
	return newResult(p, err, msgEmailFailed)
}
