// File: internal/research/outcome.go
package research

// ErrorKind classifies why a request failed. Only precondition and terminal
// failures cross the package boundary; per-tick sampling errors never do.
type ErrorKind string

const (
	// ErrNone marks a successful outcome.
	ErrNone ErrorKind = ""
	// ErrNotAuthenticated means the session precondition failed before any
	// polling started.
	ErrNotAuthenticated ErrorKind = "not_authenticated"
	// ErrElementNotFound means a required control never resolved.
	ErrElementNotFound ErrorKind = "element_not_found"
	// ErrTimeout means the oracle reached its deadline without a completion
	// signal.
	ErrTimeout ErrorKind = "timeout"
	// ErrExtractionFailed means every extraction strategy was exhausted.
	ErrExtractionFailed ErrorKind = "extraction_failed"
)

// Outcome is the terminal, structured result of one research request.
// Run always returns one, success or failure; a failed request still carries
// whatever source-count and timing telemetry was gathered.
type Outcome struct {
	RequestID      string    `json:"request_id"`
	Success        bool      `json:"success"`
	Report         string    `json:"report,omitempty"`
	Strategy       string    `json:"strategy,omitempty"`
	NewSourceCount int       `json:"new_source_count"`
	TotalSources   int       `json:"total_sources"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	TimedOut       bool      `json:"timed_out,omitempty"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
}
