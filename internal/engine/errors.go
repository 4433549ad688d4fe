package engine

import (
	"errors"
)

// Kind classifies lifecycle failures so transports can map them to a status.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindValidation   Kind = "validation"
	KindUpstream     Kind = "upstream"
)

// Error is returned for every expected lifecycle failure. Message is safe to
// show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, so errors.Is(err, ErrConflict) holds for any
// conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUpstream     = &Error{Kind: KindUpstream}
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of err, or "" for unexpected failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// User-facing messages.
const (
	msgTicketNotFound    = "Ticket not found"
	msgTicketUnavailable = "This ticket is no longer available"
	msgProfileMissing    = "User profile not found. Please complete your profile setup."
	msgReleaseNotOwner   = "You can only release tickets you claimed"
	msgReleaseLocked     = "Cannot release a ticket that has a PR submitted or is completed"
	msgInvalidSignature  = "Invalid signature"
	msgProjectNotFound   = "Project not found"
)
