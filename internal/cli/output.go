package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jaboteur/Pmetrics/internal/loader"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a run, scenario or archive lookup failed
	ExitCommandError = 2 // the command could not start: missing input, unusable archive, bad flag
)

// CLI-level error codes. Load and summarize failures carry the codes of
// the loader and summary packages.
const (
	ErrCodeArchive     = "E012"          // archive open, read or write failed
	ErrCodeNotArchived = "E013"          // no archived summary with that id or hash
	ErrCodeInvalidRun  = "E014"          // validate found invalid run documents
	ErrCodeTestFailed  = "E_TEST_FAILED" // one or more scenarios failed
)

// ExitError is a command failure with the exit code the process should use.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErrorf(code int, format string, args ...any) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// GetExitCode maps a command error to a process exit code.
// Errors that carry no ExitError are failures.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exitCodeFor maps a load or summarize error code to an exit code.
// A missing input path is a command error; everything else is a failure.
func exitCodeFor(code string) int {
	if code == loader.ErrCodeNotFound {
		return ExitCommandError
	}
	return ExitFailure
}

// CLIResponse is the envelope written by every command under --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// reporter writes command results to stdout in the selected format.
type reporter struct {
	w       io.Writer
	json    bool
	verbose bool
}

func newReporter(cmd *cobra.Command, opts *RootOptions) *reporter {
	return &reporter{
		w:       cmd.OutOrStdout(),
		json:    opts.Format == "json",
		verbose: opts.Verbose,
	}
}

// ok writes data as a JSON envelope, or calls text to render it.
func (r *reporter) ok(data any, text func(w io.Writer)) error {
	if r.json {
		return r.encode(CLIResponse{Status: "ok", Data: data})
	}
	text(r.w)
	return nil
}

// fail reports a coded failure and returns the ExitError for it.
func (r *reporter) fail(exit int, code string, err error, details any) error {
	if r.json {
		_ = r.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error(), Details: details},
		})
	} else {
		fmt.Fprintf(r.w, "Error [%s]: %v\n", code, err)
		if r.verbose && details != nil {
			fmt.Fprintf(r.w, "  details: %v\n", details)
		}
	}
	return &ExitError{Code: exit, Err: err}
}

func (r *reporter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
