package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"

	"github.com/djls/djls/internal/diag"
)

// decodeRaw unmarshals a merged koanf raw map into a Config and validates
// every diagnostics.severity value against diag.ParseSeverity, so a typo in
// djls.toml surfaces at load time (T901, §6.2) instead of silently falling
// back to a code's default severity.
func decodeRaw(raw map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Diagnostics.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (d DiagnosticsConfig) validate() error {
	for key, value := range d.Severity {
		if _, err := diag.ParseSeverity(value); err != nil {
			return fmt.Errorf("config: diagnostics.severity[%q]: %w", key, err)
		}
	}
	return nil
}

// Resolve returns the severity code carries under this configuration
// (§6.3): an exact-code override wins, then a series-prefix override
// ("S" applies to every S-series code absent an exact match), then the
// code's own DefaultSeverity. Invalid override strings were already
// rejected at load time by validate, so ParseSeverity errors here are
// treated as "no override".
func (d DiagnosticsConfig) Resolve(code diag.Code) diag.Severity {
	if raw, ok := d.Severity[string(code)]; ok {
		if sev, err := diag.ParseSeverity(raw); err == nil {
			return sev
		}
	}
	if raw, ok := d.Severity[code.Prefix()]; ok {
		if sev, err := diag.ParseSeverity(raw); err == nil {
			return sev
		}
	}
	return diag.DefaultSeverity(code)
}
