// Package loader reads parsed run-result documents into run.Result values.
//
// A run document is the parsing collaborator's output, not raw engine
// output. It is a tagged envelope in JSON, YAML or CUE:
//
//	method: NPAG
//	npag: { nvar: 2, par: [...], ab: [...], indpts: 1, corden: [...], ... }
//
// or method IT2B with an it2b section. JSON and YAML are decoded strictly
// (unknown keys are errors). CUE documents are first unified with an
// embedded schema (schema.cue) and then decoded as JSON. Every decoded
// result is shape-checked with run.Validate.
package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/jaboteur/Pmetrics/internal/run"
)

//go:embed schema.cue
var schemaSource string

// Format is a run document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Document is the envelope of a run document.
type Document struct {
	Method string          `json:"method" yaml:"method"`
	NPAG   *run.NPAGResult `json:"npag,omitempty" yaml:"npag,omitempty"`
	IT2B   *run.IT2BResult `json:"it2b,omitempty" yaml:"it2b,omitempty"`
}

// Error code constants shared with the CLI.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeLoadFailed    = "E004" // Read or decode failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeUnsupported   = "E008" // Unsupported format or method
	ErrCodeMissingBody   = "E009" // Envelope lacks the section named by method
	ErrCodeInvalidShape  = "E010" // run.Validate failed
	ErrCodeSchemaFailure = "E011" // CUE schema unification failed
)

// LoadError represents an error that occurred while loading a run document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the E-code from a loader error, or ErrCodeGeneric.
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported run document extension %q", filepath.Ext(path))}
	}
}

// Load reads and decodes the run document at path.
func Load(path string) (run.Result, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "reading run document", Err: err}
	}
	return Decode(data, format, path)
}

// Decode decodes a run document held in memory. name is used in CUE positions.
func Decode(data []byte, format Format, name string) (run.Result, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatJSON:
		doc, err = decodeJSON(data)
	case FormatYAML:
		doc, err = decodeYAML(data)
	case FormatCUE:
		doc, err = decodeCUE(data, name)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	res, err := doc.Result()
	if err != nil {
		return nil, err
	}
	if err := run.Validate(res); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidShape, Message: fmt.Sprintf("%s result has an inconsistent shape", res.Method()), Err: err}
	}
	return res, nil
}

// Result returns the variant named by Method.
func (d *Document) Result() (run.Result, error) {
	switch run.Method(strings.ToUpper(d.Method)) {
	case run.MethodNPAG:
		if d.NPAG == nil {
			return nil, &LoadError{Code: ErrCodeMissingBody, Message: "method NPAG requires an npag section"}
		}
		return d.NPAG, nil
	case run.MethodIT2B:
		if d.IT2B == nil {
			return nil, &LoadError{Code: ErrCodeMissingBody, Message: "method IT2B requires an it2b section"}
		}
		return d.IT2B, nil
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported method %q: must be NPAG or IT2B", d.Method)}
	}
}

func decodeJSON(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "parsing JSON", Err: err}
	}
	return &doc, nil
}

func decodeYAML(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "parsing YAML", Err: err}
	}
	return &doc, nil
}

func decodeCUE(data []byte, name string) (*Document, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "compiling embedded schema", Err: err}
	}

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "building CUE value", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchemaFailure, "run document does not match schema", err)
	}

	js, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "exporting CUE value", err)
	}
	return decodeJSON(js)
}

// cueLoadError converts a CUE error to a LoadError with position info.
func cueLoadError(code, message string, err error) *LoadError {
	le := &LoadError{Code: code, Message: message, Err: err}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
	}
	return le
}
