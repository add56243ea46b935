package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaboteur/Pmetrics/internal/loader"
)

// FileValidation is the validation outcome of one run document.
type FileValidation struct {
	File    string `json:"file"`
	Valid   bool   `json:"valid"`
	Method  string `json:"method,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <run-file>...",
		Short: "Validate run documents without summarizing",
		Long: `Decode run documents and check their shape without summarizing.

Performs format detection, strict decoding, CUE schema unification and
shape checks (matrix dimensions, subject counts, cycle index). Every file
is checked; the command fails if any file is invalid.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	rep := newReporter(cmd, opts)
	logger := opts.Logger()

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	invalid := 0
	for _, path := range paths {
		fv := validateFile(path)
		logger.Debug("validated run document",
			zap.String("file", path),
			zap.Bool("valid", fv.Valid),
			zap.String("code", fv.Code))
		if !fv.Valid {
			result.Valid = false
			invalid++
		}
		result.Files = append(result.Files, fv)
	}

	if result.Valid {
		return rep.ok(result, func(w io.Writer) {
			printValidation(w, result.Files)
			fmt.Fprintf(w, "%d run document(s) valid\n", len(result.Files))
		})
	}

	err := fmt.Errorf("%d run document(s) invalid", invalid)
	if rep.json {
		return rep.fail(ExitFailure, ErrCodeInvalidRun, err, result.Files)
	}
	printValidation(rep.w, result.Files)
	return &ExitError{Code: ExitFailure, Err: err}
}

func validateFile(path string) FileValidation {
	res, err := loader.Load(path)
	if err != nil {
		return FileValidation{
			File:    path,
			Code:    loader.ErrorCode(err),
			Message: err.Error(),
		}
	}
	return FileValidation{File: path, Valid: true, Method: string(res.Method())}
}

func printValidation(w io.Writer, files []FileValidation) {
	for _, fv := range files {
		if fv.Valid {
			fmt.Fprintf(w, "✓ %s (%s)\n", fv.File, fv.Method)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n  [%s] %s\n", fv.File, fv.Code, fv.Message)
	}
}
