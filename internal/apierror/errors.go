package apierror

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is an operational error with a fixed HTTP status.
type Error struct {
	StatusCode int
	Message    string
}

func New(message string, statusCode int) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Status is "fail" for client errors and "error" otherwise.
func (e *Error) Status() string {
	return statusText(e.StatusCode)
}

func NotFound(resource, id string) *Error {
	return New(fmt.Sprintf("No %s for this id %s", resource, id), http.StatusNotFound)
}

func RouteNotFound(url string) *Error {
	return New("Can't find this route: "+url, http.StatusNotFound)
}

type Location string

const (
	Body   Location = "body"
	Params Location = "params"
	Query  Location = "query"
)

type FieldError struct {
	Field    string   `json:"field"`
	Location Location `json:"location"`
	Value    any      `json:"value,omitempty"`
	Msg      string   `json:"msg"`
}

type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidation(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func statusText(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}
