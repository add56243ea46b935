package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaboteur/Pmetrics/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario name glob
	GoldenDir string // golden snapshot directory
}

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name          string   `json:"name"`
	Pass          bool     `json:"pass"`
	GoldenUpdated bool     `json:"golden_updated,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// TestResult tallies a scenario run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios against the summarizer",
		Long: `Run conformance scenarios against the summarizer.

A scenario is a YAML file naming a run document and either the
assertions its summary must satisfy or the error code it must fail
with. Scenarios marked golden are also compared with a text snapshot
kept in the golden directory, by default "golden" beside the scenarios
directory. --update rewrites those snapshots.

Exit codes:
  0 - every scenario passed
  1 - a scenario failed
  2 - the scenarios directory or filter is unusable

Examples:
  pmsum test ./testdata/scenarios
  pmsum test ./testdata/scenarios --filter "scenario_b*"
  pmsum test ./testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden snapshot directory (default <scenarios-dir>/../golden)")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	rep := newReporter(cmd, opts.RootOptions)

	if _, err := os.Stat(dir); err != nil {
		return exitErrorf(ExitCommandError, "scenarios directory not found: %s", dir)
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}
	if len(files) == 0 {
		return rep.ok(TestResult{Scenarios: []ScenarioResult{}}, func(w io.Writer) {
			fmt.Fprintln(w, "No scenarios found.")
		})
	}

	checker := &scenarioChecker{
		h:         harness.New(harness.WithLogger(opts.Logger())),
		goldenDir: opts.GoldenDir,
		update:    opts.Update,
		verbose:   opts.Verbose,
		logger:    opts.Logger(),
	}
	if checker.goldenDir == "" {
		checker.goldenDir = defaultGoldenDir(dir)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, f := range files {
		sr := checker.check(f)
		result.add(sr)
		if !rep.json {
			printScenario(rep.w, sr)
		}
	}
	return reportTests(rep, result)
}

// defaultGoldenDir is the "golden" directory next to the scenarios directory.
func defaultGoldenDir(scenariosDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(scenariosDir)), "golden")
}

// findScenarioFiles lists the .yaml/.yml files under dir whose base name
// (without extension) matches filter. An empty filter matches all.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// scenarioChecker runs one scenario file through the harness and its golden snapshot.
type scenarioChecker struct {
	h         *harness.Harness
	goldenDir string
	update    bool
	verbose   bool
	logger    *zap.Logger
}

func (c *scenarioChecker) check(path string) ScenarioResult {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return failed(filepath.Base(path), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := c.h.Run(scenario)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	if !result.Pass {
		return failed(scenario.Name, result.Errors...)
	}

	// Expected-error scenarios have no summary to snapshot.
	if !scenario.Golden || result.Summary == nil {
		return ScenarioResult{Name: scenario.Name, Pass: true}
	}

	diff, err := harness.CheckGolden(c.goldenDir, scenario.Name, result.Summary, c.update)
	switch {
	case err != nil:
		return failed(scenario.Name, fmt.Sprintf("golden comparison failed: %v", err))
	case c.update:
		return ScenarioResult{Name: scenario.Name, Pass: true, GoldenUpdated: true}
	case diff != "":
		c.logger.Debug("golden mismatch",
			zap.String("scenario", scenario.Name),
			zap.String("diff", diff))
		errs := []string{"summary does not match golden file (run with --update to regenerate)"}
		if c.verbose {
			errs = append(errs, diff)
		}
		return failed(scenario.Name, errs...)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

func printScenario(w io.Writer, sr ScenarioResult) {
	switch {
	case !sr.Pass:
		fmt.Fprintf(w, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	case sr.GoldenUpdated:
		fmt.Fprintf(w, "✓ %s (golden updated)\n", sr.Name)
	default:
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
	}
}

func reportTests(rep *reporter, result TestResult) error {
	tally := func(w io.Writer) {
		fmt.Fprintf(w, "\nSummary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}
	if result.Failed == 0 {
		return rep.ok(result, func(w io.Writer) {
			tally(w)
			fmt.Fprintln(w, "✓ All scenarios passed")
		})
	}

	err := fmt.Errorf("%d scenario(s) failed", result.Failed)
	if rep.json {
		if encErr := rep.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeTestFailed, Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
	} else {
		tally(rep.w)
	}
	return &ExitError{Code: ExitFailure, Err: err}
}
