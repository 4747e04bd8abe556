package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError captures one violated schema constraint detected during
// argument validation.
type FieldError struct {
	Field  string // JSON path of the offending field, "" for document-level
	Reason string
}

// ValidationError aggregates every constraint violated by one argument
// payload. It wraps ErrInvalidArgs so callers can classify with errors.Is.
type ValidationError struct {
	Tool   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Field == "" {
			reasons[i] = f.Reason
			continue
		}
		reasons[i] = f.Field + ": " + f.Reason
	}
	return fmt.Sprintf("tool %s: %s: %s", e.Tool, ErrInvalidArgs, strings.Join(reasons, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgs
}

func validateAgainst(name string, schema *gojsonschema.Schema, args json.RawMessage) error {
	if schema == nil {
		return nil
	}

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	outcome, err := schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return &ValidationError{
			Tool:   name,
			Fields: []FieldError{{Reason: "arguments are not valid JSON: " + err.Error()}},
		}
	}
	if outcome.Valid() {
		return nil
	}

	verr := &ValidationError{Tool: name}
	for _, issue := range outcome.Errors() {
		field := issue.Field()
		if field == "(root)" {
			field = ""
		}
		verr.Fields = append(verr.Fields, FieldError{Field: field, Reason: issue.Description()})
	}
	return verr
}
