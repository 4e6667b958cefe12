// Package config provides configuration loading and discovery for djls.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. Editor-provided overrides (LSP client settings)
//  2. Environment variables (DJLS_* prefix)
//  3. Config file (closest .djls.toml or djls.toml)
//  4. Built-in defaults
//
// Config file discovery follows a cascading pattern similar to Ruff:
// starting from the target file's directory, walk up the filesystem
// until a config file is found. The closest config wins (no merging).
//
// Configuration is a passive collaborator (§6.3): it never drives
// extraction or validation logic itself, only parameterizes the
// inspector's interpreter discovery and the diagnostic severity table
// the reporter applies to the core's output.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".djls.toml", "djls.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "DJLS_"

// Config is the complete djls configuration (§6.3).
type Config struct {
	// DjangoSettingsModule is passed to the inspector subprocess's
	// environment as DJANGO_SETTINGS_MODULE. Empty means unset: the
	// inspector falls back to whatever the interpreter's own environment
	// already provides.
	DjangoSettingsModule string `koanf:"django-settings-module"`

	// VenvPath is an interpreter discovery hint: a virtualenv directory
	// to prefer over PATH lookup when locating the Python interpreter
	// that runs the inspector.
	VenvPath string `koanf:"venv-path"`

	// PythonPath holds additional entries appended to the inspector's
	// sys.path, e.g. a project's src/ layout or a vendored app directory.
	PythonPath []string `koanf:"pythonpath"`

	// Diagnostics controls per-code and per-prefix severity overrides.
	Diagnostics DiagnosticsConfig `koanf:"diagnostics"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// DiagnosticsConfig holds severity overrides keyed by diagnostic code or
// code-series prefix (§6.3). Valid values: "error", "warning", "info",
// "hint", "off".
type DiagnosticsConfig struct {
	Severity map[string]string `koanf:"severity"`
}

// Default returns the default configuration: no interpreter hints, no
// severity overrides (every code keeps diag.DefaultSeverity).
func Default() *Config {
	return &Config{
		Diagnostics: DiagnosticsConfig{
			Severity: map[string]string{},
		},
	}
}

// Load loads configuration for a target file path.
// It discovers the closest config file, loads it, and applies
// environment variable overrides.
func Load(targetPath string) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath))
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

// loadWithConfigPath is an internal helper that loads config with an optional config file path.
func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load environment variables (DJLS_* prefix)
	// DJLS_DJANGO_SETTINGS_MODULE -> django-settings-module
	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: envKeyTransform}), nil); err != nil {
		return nil, err
	}

	cfg, err := decodeRaw(k.Raw())
	if err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	return cfg, nil
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated equivalents.
var knownHyphenatedKeys = map[string]string{
	"django.settings.module": "django-settings-module",
	"venv.path":              "venv-path",
}

// envKeyTransform converts environment variable names to config keys.
// DJLS_DJANGO_SETTINGS_MODULE -> django-settings-module
// DJLS_VENV_PATH -> venv-path
func envKeyTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}
	return s
}

// Discover finds the closest config file for a target file path.
// It walks up the directory tree from the target's directory,
// checking for config files at each level.
// Returns empty string if no config file is found.
func Discover(targetPath string) string {
	// Get absolute path to handle relative paths correctly
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	// Start from the target's directory
	dir := filepath.Dir(absPath)

	for {
		// Check each config file name in priority order
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		// Move up to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
