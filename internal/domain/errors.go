package domain

import "errors"

// ErrorKind classifies failures so callers can decide between retrying and
// showing a permanent error.
type ErrorKind string

const (
	KindValidation    ErrorKind = "VALIDATION_ERROR"
	KindAlreadyExists ErrorKind = "ALREADY_EXISTS"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindStore         ErrorKind = "STORE_ERROR"
	KindNetwork       ErrorKind = "NETWORK_ERROR"
	KindUnknown       ErrorKind = "UNKNOWN"
)

// Error is the typed error returned by the repository and surfaced in the
// HTTP envelope. Message is safe to show to users; Err keeps the cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the Err* sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrAlreadyExists = &Error{Kind: KindAlreadyExists, Message: "app already exists"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "app not found"}
	ErrStore         = &Error{Kind: KindStore, Message: "store failure"}
)

// KindOf extracts the kind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ValidationFailed builds a validation error carrying every violation.
func ValidationFailed(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// AlreadyExists reports a duplicate directUrl.
func AlreadyExists(directURL string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: "app already exists", Details: directURL}
}

// NotFound reports an unknown id or directUrl.
func NotFound(key string) *Error {
	return &Error{Kind: KindNotFound, Message: "app not found", Details: key}
}

// StoreFailure wraps a KV failure. message is what callers see.
func StoreFailure(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}

