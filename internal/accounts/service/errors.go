package service

import (
	"fmt"
	"strings"
)

// Kind classifies a service failure. Handlers map each kind to one HTTP
// status.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindConflict
	KindUnauthorized
	KindNotFound
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	default:
		return "internal"
	}
}

// FieldError names one rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

// Error is returned by every service operation. Message and Fields are safe
// to show callers; Err is the underlying cause and is only for logs.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "; %s %s", f.Field, f.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind. A target with a Code must match
// that too, so ErrUnauthorized matches any unauthorized error while
// ErrCodeMismatch matches only itself.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// wrap returns a copy of e carrying cause.
func (e *Error) wrap(cause error) *Error {
	out := *e
	out.Err = cause
	return &out
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput, Message: "validation failed"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "authentication failed"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "profile not found"}
	ErrInternal     = &Error{Kind: KindInternal, Message: "internal server error"}

	ErrUsernameTaken = &Error{Kind: KindConflict, Code: "username_taken", Message: "username is already taken"}
	ErrEmailExists   = &Error{Kind: KindConflict, Code: "email_exists", Message: "an account with this email already exists"}

	ErrCodeMismatch     = &Error{Kind: KindInvalidInput, Code: "code_mismatch", Message: "reset code is invalid"}
	ErrCodeExpired      = &Error{Kind: KindExpired, Code: "code_expired", Message: "reset code has expired"}
	ErrPasswordMismatch = &Error{Kind: KindInvalidInput, Code: "password_mismatch", Message: "passwords do not match"}
	ErrWeakPassword     = &Error{Kind: KindInvalidInput, Code: "weak_password", Message: "password must be at least 8 characters"}

	ErrAlreadyEnabled = &Error{Kind: KindInvalidInput, Code: "already_enabled", Message: "two-factor authentication is already enabled"}
	ErrNotStarted     = &Error{Kind: KindInvalidInput, Code: "not_started", Message: "two-factor enrollment has not been started"}
	ErrCodeRequired   = &Error{Kind: KindInvalidInput, Code: "code_required", Message: "code is required"}
	ErrBadCode        = &Error{Kind: KindInvalidInput, Code: "bad_code", Message: "code is invalid"}
)

func invalidInput(fields []FieldError) *Error {
	out := *ErrInvalidInput
	out.Fields = fields
	return &out
}

func internal(cause error) *Error {
	return ErrInternal.wrap(cause)
}
