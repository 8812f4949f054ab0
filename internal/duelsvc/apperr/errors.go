// Package apperr carries the typed outcomes of duel, ledger and leaderboard
// operations so the transport layer can pick a status without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Error is the domain error type with a machine-readable code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Kind returns the outcome class of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a domain error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// KindOf extracts the outcome class of err. Errors that are not domain
// errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindInternal
}

// CodeOf extracts the code of err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Sentinels for errors.Is comparisons. Messages returned to callers may be
// more specific; comparison is by code only.
var (
	ErrDuelNotOpen             = New(CodeDuelNotOpen, "duel is not open for joining")
	ErrDuelExpired             = New(CodeDuelExpired, "duel has expired")
	ErrAlreadySubmitted        = New(CodeAlreadySubmitted, "result already submitted")
	ErrNotParticipant          = New(CodeNotParticipant, "only participants can submit results")
	ErrInvalidTransition       = New(CodeInvalidTransition, "invalid transition")
	ErrInsufficientFunds       = New(CodeInsufficientFunds, "insufficient available balance")
	ErrInsufficientLockedFunds = New(CodeInsufficientLockedFunds, "insufficient locked balance")
	ErrUserNotFound            = New(CodeUserNotFound, "user not found")
	ErrDuelNotFound            = New(CodeDuelNotFound, "duel not found")
	ErrWalletNotFound          = New(CodeWalletNotFound, "wallet not found")
	ErrPlayerNotRanked         = New(CodePlayerNotRanked, "player has no leaderboard record")
	ErrInvalidAmount           = New(CodeInvalidAmount, "amount must be greater than 0")
	ErrNotCreator              = New(CodeNotCreator, "only the creator can cancel the duel")
	ErrCannotJoinOwnDuel       = New(CodeCannotJoinOwnDuel, "player cannot join their own duel")
)

// InvalidTransition names the current state and the rejected action.
func InvalidTransition(status, action string) *Error {
	return Newf(CodeInvalidTransition, "cannot %s duel in %s state", action, status)
}

// Validation builds an INVALID_ARGUMENT error.
func Validation(format string, args ...any) *Error {
	return Newf(CodeInvalidArgument, format, args...)
}
