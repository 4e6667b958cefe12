package configschema

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateSetsIdentifyingFields(t *testing.T) {
	t.Parallel()

	schema, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if schema.ID != schemaID {
		t.Errorf("schema.ID = %q, want %q", schema.ID, schemaID)
	}
	if schema.Title == "" {
		t.Error("schema.Title is empty")
	}
	if len(schema.Required) != 0 {
		t.Errorf("schema.Required = %v, want empty (every field optional)", schema.Required)
	}
}

func TestGenerateDocumentsSeverityPrefixRule(t *testing.T) {
	t.Parallel()

	schema, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	diagnostics, ok := schema.Properties["diagnostics"]
	if !ok || diagnostics == nil {
		t.Fatal("schema.Properties[\"diagnostics\"] missing")
	}
	severity, ok := diagnostics.Properties["severity"]
	if !ok || severity == nil {
		t.Fatal("diagnostics.Properties[\"severity\"] missing")
	}
	if !strings.Contains(severity.Description, "prefix") {
		t.Errorf("severity.Description = %q, want it to mention the prefix-fallback rule", severity.Description)
	}
}

func TestWriteIncludesSchemaID(t *testing.T) {
	t.Parallel()

	schema, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, schema); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"$id"`) && !strings.Contains(buf.String(), schemaID) {
		t.Errorf("Write() output missing schema ID: %s", buf.String())
	}
}
