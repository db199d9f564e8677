// Package rpcerr defines the error taxonomy surfaced by this client: a
// small closed set of Kind values plus a RemoteError payload for server
// failures, following a StoreError/ErrorCode-style categorized-error split
// — Kind plays the role of ErrorCode, Error plays the role of StoreError.
package rpcerr

import (
	"errors"
	"fmt"

	"github.com/arterrin/lvrpc/procedure"
	"github.com/arterrin/lvrpc/xdr"
)

// Kind categorizes why an RPC operation failed.
type Kind int

const (
	// KindTransportClosed: the underlying socket read or write failed, or
	// returned 0 unexpectedly. Poisons the connection — see
	// client.Connection, which refuses further calls once poisoned.
	KindTransportClosed Kind = iota

	// KindMalformed: a packet violated framing or XDR rules.
	KindMalformed

	// KindProtocol: the packet was well-formed XDR but semantically wrong
	// (bad serial, wrong procedure, unexpected type/status combination).
	KindProtocol

	// KindRemoteFailure: the server returned status=ERROR, carrying a
	// RemoteError body.
	KindRemoteFailure

	// KindUsage: caller-side misuse, e.g. starting a second stream CALL
	// while one is already open on the connection.
	KindUsage
)

func (k Kind) String() string {
	switch k {
	case KindTransportClosed:
		return "TransportClosed"
	case KindMalformed:
		return "Malformed"
	case KindProtocol:
		return "Protocol"
	case KindRemoteFailure:
		return "RemoteFailure"
	case KindUsage:
		return "UsageError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels that Kind-specific errors wrap, so callers can use errors.Is
// without reaching into this package's Error type.
var (
	ErrTransportClosed = errors.New("rpcerr: transport closed")
	ErrProtocol        = errors.New("rpcerr: protocol violation")
	ErrUsage           = errors.New("rpcerr: usage error")
)

// Error is the structured error returned by every package in this module.
type Error struct {
	Kind Kind
	// Remote carries the server's RemoteError body when Kind ==
	// KindRemoteFailure; nil otherwise.
	Remote *procedure.RemoteError
	// Cause is the underlying error, if any (a wrapped transport or XDR
	// error for the other kinds).
	Cause error
}

func (e *Error) Error() string {
	if e.Kind == KindRemoteFailure && e.Remote != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Remote.Message())
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is one of the package sentinels matching e's
// Kind, so errors.Is(err, rpcerr.ErrTransportClosed) works without
// unwrapping through Cause.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransportClosed:
		return e.Kind == KindTransportClosed
	case ErrProtocol:
		return e.Kind == KindProtocol
	case ErrUsage:
		return e.Kind == KindUsage
	}
	return false
}

// New wraps cause as an Error of the given kind.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf wraps a formatted message as an Error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// Remote wraps a decoded RemoteError as a KindRemoteFailure Error.
func Remote(re *procedure.RemoteError) *Error {
	return &Error{Kind: KindRemoteFailure, Remote: re}
}

// FromDecodeError classifies an error surfaced by package xdr or package
// wire into the right Kind: xdr.ErrMalformed-wrapped errors become
// KindMalformed, rpcerr.ErrTransportClosed-wrapped errors keep their kind,
// anything else is treated as a protocol violation.
func FromDecodeError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, ErrTransportClosed) {
		return New(KindTransportClosed, err)
	}
	if errors.Is(err, xdr.ErrMalformed) {
		return New(KindMalformed, err)
	}
	return New(KindProtocol, err)
}
