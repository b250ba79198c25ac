package domain

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrEmptyMessage     = errors.New("no message or image provided")
	ErrMissingFile      = errors.New("no file provided")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrModelCall        = errors.New("model call failed")
	ErrStore            = errors.New("session store failure")
	ErrImageProcessing  = errors.New("image processing failed")
	ErrActiveRequest    = errors.New("active request exists")
	ErrNotSupported     = errors.New("not supported by the configured backend")
)

// ErrorKind is the machine-checkable class of a request-fatal error.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindModelError       ErrorKind = "model_error"
	KindStoreFailure     ErrorKind = "store_failure"
	KindImageProcessing  ErrorKind = "image_processing"
	KindNotSupported     ErrorKind = "not_supported"
	KindInternal         ErrorKind = "internal"
)

// Kind classifies err by the sentinel it wraps.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrMissingFile),
		errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrModelCall):
		return KindModelError
	case errors.Is(err, ErrStore):
		return KindStoreFailure
	case errors.Is(err, ErrImageProcessing):
		return KindImageProcessing
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	default:
		return KindInternal
	}
}
