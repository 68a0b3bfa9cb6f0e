package engine

import "fmt"

// FailureKind categorizes how a match engine invocation failed.
type FailureKind string

const (
	// FailureArtifact means a bot artifact could not be fetched from the
	// blob store.
	FailureArtifact FailureKind = "artifact"

	// FailureExec means the engine subprocess exited non-zero or could not
	// be started.
	FailureExec FailureKind = "exec"

	// FailureTimeout means the subprocess outlived the per-match timeout
	// and was killed.
	FailureTimeout FailureKind = "timeout"

	// FailureLog means the engine exited cleanly but the expected log file
	// was missing, unreadable or unparseable.
	FailureLog FailureKind = "log"
)

// Error is a categorized match engine failure. Any Error aborts the playoff
// run it occurred in.
type Error struct {
	Kind FailureKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("match engine failure (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
