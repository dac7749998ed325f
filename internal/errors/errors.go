// Package errors provides structured error types for tabsnap.
// Each error records the operation that failed and a Kind that callers use to
// decide between warning the user, aborting quietly, or surfacing the failure.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindCancelled
	KindNoLocation
	KindNotFound
	KindInvalid
	KindIO
	KindConfig
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindNoLocation:
		return "no storage location"
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindIO:
		return "I/O error"
	case KindConfig:
		return "configuration error"
	case KindHost:
		return "host error"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for tabsnap.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Cancelled marks a user-declined prompt.
func Cancelled(op Op) error {
	return E(op, KindCancelled, "cancelled by user")
}

// Session errors
func SessionNotFound(path string, err error) error {
	return E(Op("session.Load"), KindNotFound, fmt.Sprintf("session file %s not found", path), err)
}

func SessionInvalid(path, reason string) error {
	return E(Op("session.Load"), KindInvalid, fmt.Sprintf("invalid session %s: %s", path, reason))
}

func SessionUnreadable(path string, err error) error {
	return E(Op("session.Load"), KindIO, fmt.Sprintf("failed to read session %s", path), err)
}

func SessionWriteFailed(path string, err error) error {
	return E(Op("session.Write"), KindIO, fmt.Sprintf("failed to write session %s", path), err)
}

// Storage errors
func LocationUnresolved(mode string) error {
	return E(Op("storage.Resolve"), KindNoLocation, fmt.Sprintf("no session folder available for %s mode", mode))
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}

// Host errors
func HostCommandFailed(op Op, detail string, err error) error {
	return E(op, KindHost, detail, err)
}
