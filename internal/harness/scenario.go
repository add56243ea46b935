package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultTolerance is used when a scenario does not set one.
const DefaultTolerance = 1e-9

// Scenario defines a summary test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the path of the run document to summarize.
	// Relative paths are resolved against the scenario file's directory.
	Run string `yaml:"run"`

	// Tolerance bounds numeric comparisons. Zero means DefaultTolerance.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Golden enables snapshot comparison in RunWithGolden callers.
	Golden bool `yaml:"golden,omitempty"`

	// ExpectError is the error code the scenario must fail with
	// (a loader E-code or a summary error code such as INVALID_INPUT).
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the computed summary.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one part of a summary.
type Assertion struct {
	// Type selects the assertion (see the Assert* constants).
	Type string `yaml:"type"`

	// Field names the summary part being checked.
	Field string `yaml:"field,omitempty"`

	// Subject is the subject id for subject rows and post_cov/post_cor.
	Subject string `yaml:"subject,omitempty"`

	// Parameter names the shrinkage row.
	Parameter string `yaml:"parameter,omitempty"`

	// Method is the expected method (used by method).
	Method string `yaml:"method,omitempty"`

	// Value is the expected scalar (used by scalar and shrinkage).
	Value *float64 `yaml:"value,omitempty"`

	// Values is the expected vector (used by vector and subject).
	Values []float64 `yaml:"values,omitempty"`

	// Matrix is the expected matrix, row by row (used by matrix).
	Matrix [][]float64 `yaml:"matrix,omitempty"`
}

// Assertion type constants.
const (
	AssertMethod    = "method"
	AssertScalar    = "scalar"
	AssertVector    = "vector"
	AssertMatrix    = "matrix"
	AssertSubject   = "subject"
	AssertShrinkage = "shrinkage"
	AssertAbsent    = "absent"
	AssertPresent   = "present"
)

// LoadScenario reads and parses a scenario YAML file.
// The run path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve run path relative to the scenario BEFORE validation
	if scenario.Run != "" && !filepath.IsAbs(scenario.Run) {
		scenario.Run = filepath.Join(filepath.Dir(path), scenario.Run)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml / *.yml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// tolerance returns the effective comparison tolerance.
func (s *Scenario) tolerance() float64 {
	if s.Tolerance > 0 {
		return s.Tolerance
	}
	return DefaultTolerance
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Run == "" {
		return fmt.Errorf("run is required")
	}

	if _, err := os.Stat(s.Run); os.IsNotExist(err) {
		return fmt.Errorf("run document not found: %s", s.Run)
	}

	if s.Tolerance < 0 {
		return fmt.Errorf("tolerance must be non-negative")
	}

	if len(s.Assertions) == 0 && s.ExpectError == "" && !s.Golden {
		return fmt.Errorf("assertions list is required unless expect_error or golden is set")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMethod:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for method", index)
		}
	case AssertScalar:
		if !slices.Contains(scalarFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown scalar field %q", index, a.Field)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for scalar", index)
		}
	case AssertVector:
		if !slices.Contains(vectorFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown vector field %q", index, a.Field)
		}
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values is required for vector", index)
		}
	case AssertMatrix:
		if !slices.Contains(matrixFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown matrix field %q", index, a.Field)
		}
		if (a.Field == "post_cov" || a.Field == "post_cor") && a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for %s", index, a.Field)
		}
		if len(a.Matrix) == 0 {
			return fmt.Errorf("assertions[%d]: matrix is required for matrix", index)
		}
	case AssertSubject:
		if !slices.Contains(subjectFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown subject field %q", index, a.Field)
		}
		if a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for subject", index)
		}
		if len(a.Values) == 0 {
			return fmt.Errorf("assertions[%d]: values is required for subject", index)
		}
	case AssertShrinkage:
		if a.Parameter == "" {
			return fmt.Errorf("assertions[%d]: parameter is required for shrinkage", index)
		}
		if a.Field != "" && !slices.Contains(shrinkageFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown shrinkage field %q", index, a.Field)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for shrinkage", index)
		}
	case AssertAbsent, AssertPresent:
		if !slices.Contains(optionalFields, a.Field) {
			return fmt.Errorf("assertions[%d]: unknown optional field %q", index, a.Field)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

var (
	scalarFields    = []string{"gridpts", "wparvol", "nsub"}
	vectorFields    = []string{"pop_mean", "pop_sd", "pop_var", "pop_cv", "pop_median"}
	matrixFields    = []string{"pop_cov", "pop_cor", "post_cov", "post_cor"}
	subjectFields   = []string{"post_mean", "post_sd", "post_var"}
	shrinkageFields = []string{"shrinkage", "var_ebd", "pop_var"}
	optionalFields  = []string{"pop_points", "post_points", "post_cov", "post_cor", "gridpts", "wparvol", "pop_ran_fix"}
)
