// Package browser acquires headless browser sessions and drives pages.
//
// A Session is exclusively owned by one scan. Callers must invoke Release
// exactly once, on every exit path, typically with defer right after a
// successful Acquire.
package browser

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means the backend lacks a required credential.
	ErrNotConfigured = errors.New("browser backend not configured")

	// ErrConnectionFailed means the browser infrastructure is unreachable.
	ErrConnectionFailed = errors.New("browser connection failed")

	// ErrConnectTimeout is wrapped together with ErrConnectionFailed when
	// the connect timer fires first.
	ErrConnectTimeout = errors.New("browser connect timed out")

	// ErrNavigationFailed means the target page did not load.
	ErrNavigationFailed = errors.New("navigation failed")
)

// Page is the part of a live browser tab the scan pipeline needs.
type Page interface {
	// Navigate loads url and returns once DOMContentLoaded fired.
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered outer HTML of the document.
	HTML(ctx context.Context) (string, error)

	// ScriptSources returns the src of every external script on the page.
	ScriptSources(ctx context.Context) ([]string, error)

	// Evaluate runs a JavaScript expression, awaiting a returned promise,
	// and decodes the result into out. out may be nil.
	Evaluate(ctx context.Context, expression string, out any) error
}

// Session is a Page backed by a browser connection that must be released.
type Session interface {
	Page

	// Release closes the page and the underlying browser connection.
	// It is safe to call more than once; only the first call does work.
	Release() error
}

// Connector acquires fresh sessions. Sessions are never pooled.
type Connector interface {
	Acquire(ctx context.Context) (Session, error)
}
