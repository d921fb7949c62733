// Package apperr defines the error kinds the relay can answer with and their
// single JSON wire format.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindMethodNotAllowed Kind = "MethodNotAllowed"
	KindConfigMissing    Kind = "ConfigMissing"
	KindBadRequest       Kind = "BadRequest"
	KindDownstream       Kind = "DownstreamError"
	KindInternal         Kind = "InternalError"
)

// Error is a failure that already knows its HTTP status.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func MethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
}

func ConfigMissing(msg string) *Error {
	return &Error{Kind: KindConfigMissing, Status: http.StatusInternalServerError, Message: msg}
}

func BadRequest(msg string, err error) *Error {
	return &Error{Kind: KindBadRequest, Status: http.StatusBadRequest, Message: msg, Err: err}
}

// Downstream mirrors the provider's status code.
func Downstream(status int, body string) *Error {
	return &Error{
		Kind:    KindDownstream,
		Status:  status,
		Message: "Google AI API Error: " + body,
	}
}

// Internal keeps err's message verbatim so callers see what actually failed.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
}

// From returns err as *Error, treating anything unknown as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// ValidationError marks a payload that did not have the expected shape,
// either from the caller or from the provider.
type ValidationError struct {
	Source string // "request" | "provider"
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Source + " validation failed"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Response is the JSON body of every failed request.
type Response struct {
	Kind  Kind   `json:"kind"`
	Error string `json:"error"`
}

func (e *Error) Response() Response {
	return Response{Kind: e.Kind, Error: e.Error()}
}

func Write(w http.ResponseWriter, e *Error) {
	if e.Kind == KindMethodNotAllowed {
		w.Header().Set("Allow", http.MethodPost)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e.Response())
}
