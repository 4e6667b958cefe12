// Package configschema generates the JSON Schema for djls.toml from the
// live internal/config.Config struct, so the schema published to editors
// (VS Code's yaml/toml language servers, JSON Schema Store) never drifts
// from what Load actually accepts.
//
// Generate and Write are library functions; the djls CLI has no
// subcommand that calls them.
package configschema

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"io"
	"time"

	gjsonschema "github.com/google/jsonschema-go/jsonschema"

	"github.com/djls/djls/internal/config"
)

const schemaID = "https://raw.githubusercontent.com/djls/djls/main/djls-schema.json"

// Generate reflects internal/config.Config into a JSON Schema and enhances
// it with the descriptions/defaults §6.3 specifies, which struct tags alone
// can't carry without becoming unreadably long.
func Generate() (*gjsonschema.Schema, error) {
	schema, err := gjsonschema.For[config.Config](nil)
	if err != nil {
		return nil, fmt.Errorf("configschema: reflect Config: %w", err)
	}

	schema.ID = schemaID
	schema.Title = "djls configuration"
	schema.Description = "Configuration schema for the djls Django template language server"

	// All top-level fields are optional (§6.3: configuration is a passive
	// collaborator with every field defaultable).
	schema.Required = nil

	enhanceField(schema, "django-settings-module", "DJANGO_SETTINGS_MODULE passed to the inspector subprocess")
	enhanceField(schema, "venv-path", "Virtualenv directory to prefer when locating the Python interpreter")
	enhanceField(schema, "pythonpath", "Additional entries appended to the inspector's sys.path")

	enhanceDiagnosticsSchema(schema)

	schema.Comment = fmt.Sprintf("Auto-generated on %s. Do not edit manually.", time.Now().Format("2006-01-02"))

	return schema, nil
}

func enhanceField(schema *gjsonschema.Schema, name, description string) {
	prop, ok := schema.Properties[name]
	if !ok || prop == nil {
		return
	}
	if prop.Description == "" {
		prop.Description = description
	}
}

// enhanceDiagnosticsSchema documents the severity map's value domain and
// the "S" prefix-fallback rule (§6.3), which a reflected map[string]string
// can't express in struct tags alone.
func enhanceDiagnosticsSchema(schema *gjsonschema.Schema) {
	diagnostics, ok := schema.Properties["diagnostics"]
	if !ok || diagnostics == nil {
		return
	}
	diagnostics.Required = nil

	severity, ok := diagnostics.Properties["severity"]
	if !ok || severity == nil {
		return
	}
	severity.Description = "Severity overrides keyed by diagnostic code (e.g. S109) or series prefix " +
		"(e.g. S, applied to every S-series code absent an exact-code match)"
	if severity.AdditionalProperties != nil {
		severity.AdditionalProperties.Enum = []any{"error", "warning", "info", "hint", "off"}
	}
}

// Write marshals schema as pretty-printed JSON, matching the indentation
// style of djls.toml's other generated artifacts.
func Write(w io.Writer, schema *gjsonschema.Schema) error {
	data, err := json.Marshal(
		schema,
		jsontext.EscapeForHTML(true),
		jsontext.WithIndentPrefix(""),
		jsontext.WithIndent("  "),
	)
	if err != nil {
		return fmt.Errorf("configschema: marshal schema: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
