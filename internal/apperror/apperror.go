// Package apperror defines the typed failures returned by the service layer
// and translates them into HTTP status codes and JSON bodies.
package apperror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindServer              Kind = "SERVER_ERROR"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindNotFound            Kind = "NOT_FOUND_ERROR"
	KindUnprocessableEntity Kind = "UNPROCESSABLE_ENTITY_ERROR"
	KindEmailAlreadyTaken   Kind = "EMAIL_ALREADY_TAKEN_ERROR"
	KindInvalidPassword     Kind = "INVALID_PASSWORD_ERROR"
)

type kindInfo struct {
	status      int
	description string
}

var kinds = map[Kind]kindInfo{
	KindServer:              {http.StatusInternalServerError, "Server error occurred"},
	KindValidation:          {http.StatusBadRequest, "Invalid input"},
	KindNotFound:            {http.StatusNotFound, "Resource not found"},
	KindUnprocessableEntity: {http.StatusUnprocessableEntity, "Unprocessable entity"},
	KindEmailAlreadyTaken:   {http.StatusUnprocessableEntity, "Email already taken"},
	KindInvalidPassword:     {http.StatusUnprocessableEntity, "Invalid password"},
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Description returns the fixed, human-readable summary of the kind.
func (k Kind) Description() string {
	if info, ok := kinds[k]; ok {
		return info.description
	}
	return kinds[KindServer].description
}

// Error is a typed failure with a machine-readable kind and a message.
type Error struct {
	Kind    Kind
	Message string
	// Errors carries optional per-field details.
	Errors map[string]string
	// Err is the underlying cause. It is logged, never sent to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a typed failure.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a typed failure caused by err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithField returns a copy of e with a field error attached.
func (e *Error) WithField(field, message string) *Error {
	fields := make(map[string]string, len(e.Errors)+1)
	for k, v := range e.Errors {
		fields[k] = v
	}
	fields[field] = message
	return &Error{Kind: e.Kind, Message: e.Message, Errors: fields, Err: e.Err}
}

// KindOf returns the kind of err, or KindServer for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindServer
}

// Is reports whether err is a typed failure of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Response is the JSON error body.
type Response struct {
	StatusCode  int               `json:"statusCode"`
	Error       Kind              `json:"error"`
	Description string            `json:"description"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// ToResponse translates err into the error body. Untyped errors become a
// generic server error so internal details never reach the client.
func ToResponse(err error) Response {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return Response{
			StatusCode:  KindServer.Status(),
			Error:       KindServer,
			Description: KindServer.Description(),
			Message:     "Internal server error",
		}
	}
	return Response{
		StatusCode:  appErr.Kind.Status(),
		Error:       appErr.Kind,
		Description: appErr.Kind.Description(),
		Message:     appErr.Message,
		Errors:      appErr.Errors,
	}
}

// Write sends err to the client as a JSON error body.
func Write(w http.ResponseWriter, err error) {
	resp := ToResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
