package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/djls/djls/internal/version"
)

// newLogger builds the single process-wide *zap.Logger (§A.1), threaded
// down through command constructors rather than read from a package-level
// global. Output always goes to stderr (zap's production default) since
// "djls lsp --stdio" reserves stdout for the JSON-RPC transport.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewApp creates the CLI application.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "djls",
		Usage:   "A language server and linter for Django HTML templates",
		Version: version.Version(),
		Description: `djls analyzes Django HTML templates for unloaded template tags and
filters, mismatched {% if %} expressions, and filter arity mistakes,
using a static inventory mined from your project's Python environment.

Examples:
  djls lint templates/
  djls lint --format sarif templates/ > results.sarif
  djls lsp --stdio`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug-level logging",
			},
		},
		Commands: []*cli.Command{
			lintCommand(),
			lspCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application.
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
