// Package validate checks repaired JSON documents against a JSON Schema.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON Schema, safe for concurrent use.
type Schema struct {
	source string
	schema *gojsonschema.Schema
}

// FieldError describes one violation at a JSON path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema mismatch:")
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError reports a schema that could not be read or compiled.
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error { return e.Cause }

// LoadSchema reads and compiles the schema file at path. Relative $ref
// values resolve against the file's directory.
func LoadSchema(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Cause: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, &SchemaLoadError{Path: abs, Cause: err}
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs)))
	if err != nil {
		return nil, &SchemaLoadError{Path: abs, Cause: err}
	}
	return &Schema{source: abs, schema: s}, nil
}

// CompileSchema compiles a schema given inline.
func CompileSchema(content string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &SchemaLoadError{Path: "(inline)", Cause: err}
	}
	return &Schema{source: "(inline)", schema: s}, nil
}

// Source names where the schema came from.
func (s *Schema) Source() string { return s.source }

// Validate checks document against the schema. It returns a
// *ValidationError when the document parses but does not conform.
func (s *Schema) Validate(document string) error {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return fmt.Errorf("validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
