package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rubythings/ruport/internal/query"
	"github.com/rubythings/ruport/internal/table"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Connection or statement failure
	ExitCommandError = 2 // Command error (bad sources file, unknown source, unreadable SQL file, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// wrapQueryError picks the exit code for an error returned by package query.
func wrapQueryError(message string, err error) *ExitError {
	if query.IsSetupError(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in JSON error responses.
const (
	CodeConfiguration = "E001" // missing source address, conflicting SQL directives
	CodeLookup        = "E002" // unknown source name
	CodeLoad          = "E003" // unreadable SQL file
	CodeConnection    = "E004" // driver could not connect
	CodeExecution     = "E005" // statement failed
	CodeUsage         = "E006" // API misuse
	CodeCommand       = "E100" // bad flags or sources file
)

// errorCode maps err to the code reported in JSON error responses.
func errorCode(err error) string {
	switch {
	case errors.Is(err, query.ErrConnection):
		return CodeConnection
	case errors.Is(err, query.ErrExecution):
		return CodeExecution
	case errors.Is(err, query.ErrLookup):
		return CodeLookup
	case errors.Is(err, query.ErrLoad):
		return CodeLoad
	case errors.Is(err, query.ErrConfiguration):
		return CodeConfiguration
	case errors.Is(err, query.ErrUsage):
		return CodeUsage
	default:
		return CodeCommand
	}
}

// OutputFormatter writes query results as CSV or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string    `json:"status"`             // "ok" or "error"
	Data    any       `json:"data,omitempty"`     // success payload
	Error   *CLIError `json:"error,omitempty"`    // error details
	TraceID string    `json:"trace_id,omitempty"` // run id of the failed execution
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`    // "E001", "E002", etc.
	Message string `json:"message"` // human-readable message
}

// TableData is the JSON payload of a query result.
type TableData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Table writes t. A nil table (resultless statement) writes nothing in CSV
// mode and a null payload in JSON mode.
func (f *OutputFormatter) Table(t *table.Table) error {
	if f.Format == "json" {
		var data any
		if t != nil {
			data = TableData{Columns: t.Columns(), Rows: jsonRows(t.Values())}
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}

	if t == nil {
		return nil
	}
	out, err := t.Render(table.FormatCSV)
	if err != nil {
		return err
	}
	_, err = io.WriteString(f.Writer, out)
	return err
}

// Error writes err as a JSON error response. In CSV mode it writes nothing
// and the error is left to the caller, which reports it on stderr.
func (f *OutputFormatter) Error(err error) error {
	if f.Format != "json" {
		return nil
	}
	return json.NewEncoder(f.Writer).Encode(CLIResponse{
		Status: "error",
		Error: &CLIError{
			Code:    errorCode(err),
			Message: err.Error(),
		},
		TraceID: query.RunID(err),
	})
}

// Lines writes a list of strings, one per line in CSV mode.
func (f *OutputFormatter) Lines(lines []string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: lines})
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(f.Writer, l); err != nil {
			return err
		}
	}
	return nil
}

// jsonRows converts []byte values to strings so they encode as text
// rather than base64.
func jsonRows(rows [][]any) [][]any {
	for _, r := range rows {
		for i, v := range r {
			if b, ok := v.([]byte); ok {
				r[i] = string(b)
			}
		}
	}
	return rows
}
