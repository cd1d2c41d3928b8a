package query

import (
	"errors"
	"fmt"

	"github.com/rubythings/ruport/internal/source"
	"github.com/rubythings/ruport/internal/sqltext"
)

// Error categories. Every error returned by this package wraps exactly one
// of these and can be matched with errors.Is. Driver errors stay reachable
// through the wrap chain.
var (
	// ErrConfiguration: missing source address, conflicting SQL directives,
	// or no registry for a name-bound query.
	ErrConfiguration = source.ErrConfiguration

	// ErrLookup: the bound source name is not registered.
	ErrLookup = source.ErrLookup

	// ErrLoad: the SQL file could not be read.
	ErrLoad = sqltext.ErrLoad

	// ErrConnection: the driver could not connect. Not retried.
	ErrConnection = errors.New("connection error")

	// ErrExecution: a statement failed to execute or iterate.
	ErrExecution = errors.New("execution error")

	// ErrUsage: the API was called incorrectly, e.g. Each without a callback.
	ErrUsage = errors.New("usage error")
)

// IsSetupError reports whether err stems from how the query was configured
// rather than from talking to the database.
func IsSetupError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrLookup) ||
		errors.Is(err, ErrLoad) ||
		errors.Is(err, ErrUsage)
}

// RunError attaches the run id of a failed execution to the error it
// produced. The same id is carried as run_id on that run's log lines.
type RunError struct {
	// RunID is the UUIDv7 assigned to the execution.
	RunID string

	// Err wraps ErrConnection or ErrExecution.
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%v (run=%s)", e.Err, e.RunID)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// RunID returns the run id attached to err, or "" when err carries none.
func RunID(err error) string {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.RunID
	}
	return ""
}
