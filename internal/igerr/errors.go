// Package igerr classifies transport and login failures into typed errors.
package igerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies one member of the closed error taxonomy
type Kind string

const (
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindAPI                Kind = "API_ERROR"
	KindChallengeRequired  Kind = "AUTH_CHALLENGE_REQUIRED"
	KindChallengeTimeout   Kind = "AUTH_CHALLENGE_TIMEOUT"
	KindLoginFailed        Kind = "LOGIN_FAILED"
	KindMissingCredentials Kind = "MISSING_CREDENTIALS"
	KindUnresolvable       Kind = "UNRESOLVABLE_IDENTIFIER"
)

// Sentinels for errors.Is; matching is by Kind only
var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized (401)"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden (403)"}
	ErrRateLimited        = &Error{Kind: KindRateLimited, Message: "rate limited (429)"}
	ErrAPI                = &Error{Kind: KindAPI, Message: "api error"}
	ErrChallengeRequired  = &Error{Kind: KindChallengeRequired, Message: "verification challenge required"}
	ErrChallengeTimeout   = &Error{Kind: KindChallengeTimeout, Message: "verification not completed in time"}
	ErrLoginFailed        = &Error{Kind: KindLoginFailed, Message: "login failed"}
	ErrMissingCredentials = &Error{Kind: KindMissingCredentials, Message: "missing credentials"}
	ErrUnresolvable       = &Error{Kind: KindUnresolvable, Message: "unresolvable identifier"}
)

// Error carries the kind plus whatever context the caller needs to decide
// between retrying and aborting.
type Error struct {
	Kind     Kind
	Message  string
	Status   int
	Endpoint string
	Input    string
	Err      error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Endpoint != "" {
		msg += " [" + e.Endpoint + "]"
	}
	if e.Input != "" {
		msg += fmt.Sprintf(" input=%q", e.Input)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, then the wrapped chain
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok && e.Kind == t.Kind {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// New creates an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithEndpoint attaches the request URL
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// WithInput attaches the offending input string
func (e *Error) WithInput(input string) *Error {
	e.Input = input
	return e
}

// Wrap sets the underlying error
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Classify maps a completed request's status to an error. Status 0 means
// no response was received. 2xx returns nil.
func Classify(status int, endpoint string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Message: "unauthorized, session lost", Status: status, Endpoint: endpoint}
	case status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Message: "forbidden, blocked or insufficient privilege", Status: status, Endpoint: endpoint}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Message: "rate limited", Status: status, Endpoint: endpoint}
	case status == 0:
		return &Error{Kind: KindAPI, Message: "no response", Endpoint: endpoint}
	default:
		return &Error{Kind: KindAPI, Message: fmt.Sprintf("HTTP %d", status), Status: status, Endpoint: endpoint}
	}
}

// Malformed reports a successful response that lacks expected fields
func Malformed(endpoint, detail string, err error) error {
	return &Error{Kind: KindAPI, Message: "malformed response: " + detail, Endpoint: endpoint, Err: err}
}

// KindOf returns the Kind of the first *Error in the chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsNotFound reports a 404 classified as an API error
func IsNotFound(err error) bool {
	return KindOf(err) == KindAPI && StatusOf(err) == http.StatusNotFound
}

// Retryable reports whether a caller may retry after backing off
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Category groups kinds into what the user should do next
type Category string

const (
	CategoryRetry      Category = "retry"
	CategoryFixInput   Category = "fix-input"
	CategoryNeedsHuman Category = "needs-human"
	CategoryFatal      Category = "fatal"
)

// CategoryOf triages err for user-facing reporting
func CategoryOf(err error) Category {
	if errors.Is(err, ErrUnresolvable) {
		return CategoryFixInput
	}
	switch KindOf(err) {
	case KindRateLimited, KindAPI:
		return CategoryRetry
	case KindUnresolvable, KindMissingCredentials, KindLoginFailed, KindUnauthorized:
		return CategoryFixInput
	case KindChallengeRequired, KindChallengeTimeout:
		return CategoryNeedsHuman
	default:
		return CategoryFatal
	}
}
