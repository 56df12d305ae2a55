package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func TestCompileSchema_ValidDocument(t *testing.T) {
	s, err := CompileSchema(personSchema)
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	if err := s.Validate(`{"name": "John", "age": 30}`); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidate_ReportsFieldErrors(t *testing.T) {
	s, err := CompileSchema(personSchema)
	if err != nil {
		t.Fatalf("CompileSchema: %v", err)
	}
	err = s.Validate(`{"age": -1}`)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	if len(ve.Errors) != 2 {
		t.Fatalf("expected 2 violations, got %+v", ve.Errors)
	}
	fields := map[string]bool{}
	for _, fe := range ve.Errors {
		fields[fe.Field] = true
	}
	if !fields["age"] {
		t.Fatalf("unexpected fields %+v", ve.Errors)
	}
	if !strings.HasPrefix(ve.Error(), "schema mismatch:") {
		t.Fatalf("unexpected message %q", ve.Error())
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(`{"type": 12}`)
	var le *SchemaLoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *SchemaLoadError, got %T %v", err, err)
	}
}

func TestLoadSchema_FileWithRelativeRef(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "name.json"), []byte(`{"type": "string", "minLength": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	main := `{"type": "object", "properties": {"name": {"$ref": "name.json"}}}`
	path := filepath.Join(dir, "main.json")
	if err := os.WriteFile(path, []byte(main), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadSchema(path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if s.Source() != path {
		t.Fatalf("source = %q", s.Source())
	}
	if err := s.Validate(`{"name": "x"}`); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := s.Validate(`{"name": ""}`); err == nil {
		t.Fatalf("expected violation through $ref")
	}
}

func TestLoadSchema_Missing(t *testing.T) {
	_, err := LoadSchema(filepath.Join(t.TempDir(), "nope.json"))
	var le *SchemaLoadError
	if !errors.As(err, &le) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist SchemaLoadError, got %v", err)
	}
}
