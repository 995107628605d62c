// File: internal/research/page.go

// Package research implements the completion-detection and result-extraction
// core for NotebookLM Deep Research: a fallback-list locator resolver, a
// polling oracle that infers task completion from indirect page signals, and
// a prioritized fail-soft extraction chain.
//
// The package never talks to a browser directly. It operates on the small
// Page/Element surface below, which internal/browser implements over
// chromedp and tests implement with in-memory stubs.
package research

import "context"

// Element is a snapshot of one matched DOM element. Visibility and text are
// captured at query time; only Click reaches back into the live page.
type Element interface {
	// Visible reports whether the element was rendered and visible when the
	// snapshot was taken.
	Visible() bool

	// Text returns the element's rendered text at snapshot time.
	Text() string

	// Click dispatches a click to the underlying element.
	Click(ctx context.Context) error
}

// Page is the minimal query surface of a live page.
type Page interface {
	// QueryAll returns a snapshot of every element matching the selector, in
	// document order. A selector matching nothing returns an empty slice,
	// not an error; errors indicate the query itself failed (detached frame,
	// navigation in flight).
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}
