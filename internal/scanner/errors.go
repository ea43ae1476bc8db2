package scanner

import (
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/a11yscan/internal/browser"
	"github.com/raysh454/a11yscan/internal/target"
)

// Kind classifies a scan failure for callers that branch on it.
type Kind string

const (
	KindInvalidURL       Kind = "INVALID_URL"
	KindRateLimited      Kind = "RATE_LIMITED"
	KindNotConfigured    Kind = "NOT_CONFIGURED"
	KindConnectionFailed Kind = "CONNECTION_FAILED"
	KindNavigationFailed Kind = "NAVIGATION_FAILED"
	KindScanFailed       Kind = "SCAN_FAILED"
)

// User-facing messages. They never carry error details.
const (
	MsgInvalidURL       = "Please enter a valid website URL."
	MsgRateLimited      = "Too many scans. Please wait a minute and try again."
	MsgNotConfigured    = "Scanning service is not configured."
	MsgConnectionFailed = "Scanning service is temporarily unavailable. Please try again shortly."
	MsgNavigationFailed = "Could not load the website. Please check the URL."
	MsgScanFailed       = "Scan failed. Please try again."
)

// Error is the only error type Scan returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error

	// RetryAfter is set for KindRateLimited.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Debug returns the underlying cause text, or "" when there is none.
func (e *Error) Debug() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Wrap attaches a kind and the matching user message to err.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Msg: messageFor(kind), Err: err}
}

// KindOf returns the kind of err, or KindScanFailed for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindScanFailed
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// classify maps a stage error onto the taxonomy. Rule engine failures and
// anything unrecognized become KindScanFailed.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, target.ErrInvalidURL):
		return Wrap(KindInvalidURL, err)
	case errors.Is(err, browser.ErrNotConfigured):
		return Wrap(KindNotConfigured, err)
	case errors.Is(err, browser.ErrConnectionFailed):
		return Wrap(KindConnectionFailed, err)
	case errors.Is(err, browser.ErrNavigationFailed):
		return Wrap(KindNavigationFailed, err)
	default:
		return Wrap(KindScanFailed, err)
	}
}

func messageFor(kind Kind) string {
	switch kind {
	case KindInvalidURL:
		return MsgInvalidURL
	case KindRateLimited:
		return MsgRateLimited
	case KindNotConfigured:
		return MsgNotConfigured
	case KindConnectionFailed:
		return MsgConnectionFailed
	case KindNavigationFailed:
		return MsgNavigationFailed
	default:
		return MsgScanFailed
	}
}
