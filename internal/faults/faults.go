// Package faults defines the error kinds the service distinguishes and the
// mapping of every kind onto a transport outcome.
package faults

import (
	"errors"
	"fmt"
)

// Kind tags an error so the transports can dispatch on it.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateName
	KindUserNotFound
	KindStore
	KindNotFound
)

const (
	MsgDuplicateName = "username already taken"
	MsgUserNotFound  = "userId not found"
	MsgStoreDown     = "connection to database failed"
	MsgNotFound      = "not found"
	MsgInternal      = "Internal Server Error"
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateName:
		return "duplicate_name"
	case KindUserNotFound:
		return "user_not_found"
	case KindStore:
		return "store"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// FieldError describes a single failed field constraint.
type FieldError struct {
	Field   string
	Message string
}

// Error is the tagged error produced by the directory, the log engine and the router.
type Error struct {
	Kind    Kind
	Message string

	// Fields lists the violated constraints in declaration order, Validation only.
	Fields []FieldError

	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FirstFieldMessage returns the message of the first violated field, or the
// error message when no field is attached.
func (e *Error) FirstFieldMessage() string {
	if len(e.Fields) > 0 {
		return e.Fields[0].Message
	}
	return e.Error()
}

func Validation(fields ...FieldError) *Error {
	message := "validation failed"
	if len(fields) > 0 {
		message = fmt.Sprintf("validation failed: %s", fields[0].Message)
	}
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func DuplicateName(err error) *Error {
	return &Error{Kind: KindDuplicateName, Message: MsgDuplicateName, Err: err}
}

func UserNotFound(userID string) *Error {
	return &Error{
		Kind:    KindUserNotFound,
		Message: MsgUserNotFound,
		Err:     fmt.Errorf("no user with id %q", userID),
	}
}

// Store wraps an underlying storage failure keeping its message.
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: err.Error(), Err: err}
}

// StoreHidden wraps a storage failure behind a fixed message.
func StoreHidden(err error) *Error {
	return &Error{Kind: KindStore, Message: MsgStoreDown, Err: err}
}

func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: MsgNotFound}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf reports the kind of err. Untagged errors are KindInternal.
func KindOf(err error) Kind {
	var fault *Error
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsDomain reports whether err is answered with a success-shaped
// {"error": message} body instead of a failure status.
func IsDomain(err error) bool {
	switch KindOf(err) {
	case KindDuplicateName, KindUserNotFound, KindStore:
		return true
	}
	return false
}
