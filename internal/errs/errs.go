// Package errs defines the typed error kinds shared by every engine
// component and their mapping onto the wire status codes in the external
// interface (APDU-style "SW" trailers). Errors that are terminal for a
// session are additionally wrapped with a captured stack trace so the
// host-side development log can show where a crypto/commitment/balance
// failure originated; the trace never leaves the process, only the 16-bit
// status code defined in the wire format does.
package errs

import (
	goerrors "github.com/go-errors/errors"
)

// Kind enumerates the error categories from the error-handling design.
type Kind uint8

const (
	KindParse Kind = iota
	KindUnknownInstruction
	KindInvalidState
	KindBusy
	KindUnauthorized
	KindUserRejected
	KindRealIndexMismatch
	KindDuplicateMember
	KindCommitmentMismatch
	KindUnbalancedSummary
	KindOutOfBounds
	KindCrypto
	KindRngFailure
	KindTimeout
)

// Status is the 16-bit big-endian status word appended to every response.
type Status uint16

const (
	StatusSuccess            Status = 0x9000
	StatusInvalidParameter    Status = 0x6A80
	StatusInvalidState        Status = 0x6A81
	StatusUnauthorized        Status = 0x6982
	StatusUserRejected        Status = 0x6985
	StatusWrongLength         Status = 0x6B00
	StatusUnknownInstruction  Status = 0x6D00
)

// Terminal reports whether an error kind always tears down the active
// session (crypto, commitment, and balance errors are always terminal;
// parse/bounds errors are non-terminal unless a state transition already
// occurred).
func (k Kind) Terminal() bool {
	switch k {
	case KindCommitmentMismatch, KindUnbalancedSummary, KindCrypto, KindRngFailure:
		return true
	default:
		return false
	}
}

// String names the error kind for logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindUnknownInstruction:
		return "unknown_instruction"
	case KindInvalidState:
		return "invalid_state"
	case KindBusy:
		return "busy"
	case KindUnauthorized:
		return "unauthorized"
	case KindUserRejected:
		return "user_rejected"
	case KindRealIndexMismatch:
		return "real_index_mismatch"
	case KindDuplicateMember:
		return "duplicate_member"
	case KindCommitmentMismatch:
		return "commitment_mismatch"
	case KindUnbalancedSummary:
		return "unbalanced_summary"
	case KindOutOfBounds:
		return "out_of_bounds"
	case KindCrypto:
		return "crypto"
	case KindRngFailure:
		return "rng_failure"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Status maps an error Kind onto its wire status code.
func (k Kind) Status() Status {
	switch k {
	case KindParse:
		return StatusInvalidParameter
	case KindUnknownInstruction:
		return StatusUnknownInstruction
	case KindInvalidState, KindBusy:
		return StatusInvalidState
	case KindUnauthorized:
		return StatusUnauthorized
	case KindUserRejected:
		return StatusUserRejected
	case KindRealIndexMismatch, KindDuplicateMember, KindCommitmentMismatch,
		KindUnbalancedSummary, KindCrypto, KindRngFailure, KindTimeout:
		return StatusInvalidParameter
	case KindOutOfBounds:
		return StatusWrongLength
	default:
		return StatusUnknownInstruction
	}
}

// Error is the engine-wide error type. It carries a Kind for status-code
// mapping and, for terminal kinds, a captured stack trace for development
// logs.
type Error struct {
	Kind  Kind
	msg   string
	stack *goerrors.Error
}

func (e *Error) Error() string {
	return e.msg
}

// Stack returns the captured stack trace as a string, or "" if this error
// was never wrapped (non-terminal errors don't pay the capture cost).
func (e *Error) Stack() string {
	if e.stack == nil {
		return ""
	}
	return string(e.stack.Stack())
}

// New builds an Error of the given kind, capturing a stack trace when the
// kind is terminal.
func New(kind Kind, msg string) *Error {
	e := &Error{Kind: kind, msg: msg}
	if kind.Terminal() {
		e.stack = goerrors.Wrap(goerrors.New(msg), 1)
	}
	return e
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
