package submission

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the protocol can report. Transport and
// storage errors never reach callers without one of these attached.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotReady: the device id has not resolved. Nothing was sent.
	KindNotReady
	// KindRateLimited: the ledger says this device already reviewed the organization.
	KindRateLimited
	// KindValidation: a field failed its constraint. Nothing was sent.
	KindValidation
	// KindRemoteFailure: a remote call failed or timed out. Retryable.
	KindRemoteFailure
	// KindStaleReceipt: a local receipt pointed at a review that no longer exists.
	KindStaleReceipt
	// KindModerationFailure: flagging a review failed. Retryable.
	KindModerationFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotReady:
		return "not_ready"
	case KindRateLimited:
		return "rate_limited"
	case KindValidation:
		return "validation"
	case KindRemoteFailure:
		return "remote_failure"
	case KindStaleReceipt:
		return "stale_receipt"
	case KindModerationFailure:
		return "moderation_failure"
	default:
		return "unknown"
	}
}

// Error is a classified protocol failure.
type Error struct {
	Kind   Kind
	Op     string
	Fields map[string]string // validation messages by field
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may try the same action again.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRemoteFailure, KindModerationFailure, KindNotReady, KindValidation:
		return true
	}
	return false
}

// UserMessage is the text shown to a person. It never includes transport detail.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindNotReady:
		return "Your session is not ready yet. Please try again in a moment."
	case KindRateLimited:
		return "You have already reviewed this organization."
	case KindValidation:
		for _, f := range []string{"Rating", "TextContent", "UserMajor", "OrganizationID"} {
			if msg, ok := e.Fields[f]; ok {
				return msg
			}
		}
		for _, msg := range e.Fields {
			return msg
		}
		return "Please check your review and try again."
	case KindModerationFailure:
		return "Could not report this review. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func fail(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
