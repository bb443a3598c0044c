package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/appdir/internal/domain"
)

// Kind classifies client-side failures.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindValidation    Kind = "validation"
	KindAlreadyExists Kind = "already_exists"
	KindServer        Kind = "server"      // the server answered with a failure
	KindUnreachable   Kind = "unreachable" // no answer: transport failure
)

// Error is returned by every API call that did not succeed.
type Error struct {
	Kind    Kind
	Message string
	Code    string          // server error code, when the envelope carried one
	Status  int             // HTTP status, 0 when unreachable
	Details json.RawMessage // server-provided details, verbatim
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) retryable() bool {
	return e.Kind == KindUnreachable || e.Status >= 500
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsUnreachable reports whether the server could not be reached at all.
func IsUnreachable(err error) bool { return kindOf(err) == KindUnreachable }

func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

func IsValidation(err error) bool { return kindOf(err) == KindValidation }

func IsAlreadyExists(err error) bool { return kindOf(err) == KindAlreadyExists }

// fromEnvelope maps a server error code to a client error.
func fromEnvelope(code domain.ErrorKind, message string, details json.RawMessage) *Error {
	kind := KindServer
	switch code {
	case domain.KindValidation:
		kind = KindValidation
	case domain.KindAlreadyExists:
		kind = KindAlreadyExists
	case domain.KindNotFound:
		kind = KindNotFound
	}
	if message == "" {
		message = "request failed"
	}
	return &Error{Kind: kind, Message: message, Code: string(code), Status: 200, Details: details}
}

// fromDomain converts an error raised while applying an operation to the
// local mirror, so offline and online failures look the same to callers.
func fromDomain(err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err
	}
	var details json.RawMessage
	if de.Details != nil {
		details, _ = json.Marshal(de.Details)
	}
	out := fromEnvelope(de.Kind, de.Message, details)
	out.Status = 0
	out.Err = de.Err
	return out
}
