package harness

import "github.com/jaboteur/Pmetrics/internal/summary"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds and any expected error occurred.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// ErrorCode is the code of the load or summarize error, if one occurred.
	ErrorCode string `json:"error_code,omitempty"`

	// Summary is the computed summary. Nil when an error occurred.
	Summary *summary.FinalCycleSummary `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
