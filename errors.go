package jsonp

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidArgument is returned synchronously for a bad URL or params.
	ErrInvalidArgument = errors.New("jsonp: invalid argument")
	// ErrInvalidSecret is returned when the signing secret is not base64.
	ErrInvalidSecret = fmt.Errorf("%w: secret is not valid base64", ErrInvalidArgument)
	// ErrCallbackInUse is returned when an explicit callbackName is still
	// registered by another in-flight call.
	ErrCallbackInUse = errors.New("jsonp: callback name already registered")
)

// StatusError is the rejection value of a settled call.
type StatusError struct {
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	// Err is the load or evaluation failure behind a Bad Request, if any.
	Err error `json:"-"`
}

var (
	ErrRequestTimeout = &StatusError{Status: http.StatusRequestTimeout, StatusText: "Request Timeout"}
	ErrBadRequest     = &StatusError{Status: http.StatusBadRequest, StatusText: "Bad Request"}
)

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jsonp: %d %s: %v", e.Status, e.StatusText, e.Err)
	}
	return fmt.Sprintf("jsonp: %d %s", e.Status, e.StatusText)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Is reports whether target is a StatusError with the same status.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	return ok && t.Status == e.Status
}

func requestTimeout() *StatusError {
	return &StatusError{Status: ErrRequestTimeout.Status, StatusText: ErrRequestTimeout.StatusText}
}

func badRequest(cause error) *StatusError {
	return &StatusError{Status: ErrBadRequest.Status, StatusText: ErrBadRequest.StatusText, Err: cause}
}
