package harness

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jaboteur/Pmetrics/internal/loader"
	"github.com/jaboteur/Pmetrics/internal/summary"
)

// Harness executes scenarios.
type Harness struct {
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to the summarizer.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// New creates a harness. Logging is discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the run document
// 2. Summarize it
// 3. Check the expected error, if any
// 4. Evaluate assertions against the summary
//
// An error is returned only when the scenario cannot be executed at all:
// a load or summarize failure that the scenario did not expect.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	result := NewResult()

	res, err := loader.Load(scenario.Run)
	if err == nil {
		result.Summary, err = summary.New(summary.WithLogger(h.logger)).Summarize(res)
	}

	if err != nil {
		result.ErrorCode = ErrorCode(err)
		if scenario.ExpectError == "" {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		if !strings.EqualFold(result.ErrorCode, scenario.ExpectError) {
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", scenario.ExpectError, result.ErrorCode, err))
		}
		return result, nil
	}

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error %s, summarize succeeded", scenario.ExpectError))
		return result, nil
	}

	for _, msg := range EvaluateAssertions(result.Summary, scenario.Assertions, scenario.tolerance()) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", result.Pass),
		zap.Int("failures", len(result.Errors)))

	return result, nil
}

// ErrorCode returns the code of a load or summarize error.
func ErrorCode(err error) string {
	if code := summary.Code(err); code != "" {
		return code
	}
	return loader.ErrorCode(err)
}
