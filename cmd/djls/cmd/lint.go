package cmd

import (
	stdcontext "context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/djls/djls/internal/config"
	"github.com/djls/djls/internal/diag"
	"github.com/djls/djls/internal/lspserver"
	"github.com/djls/djls/internal/processor"
	"github.com/djls/djls/internal/reporter"
	"github.com/djls/djls/internal/version"
)

// Exit codes.
const (
	ExitSuccess     = 0 // No diagnostics (or below fail-level threshold)
	ExitViolations  = 1 // Diagnostics found at or above fail-level
	ExitConfigError = 2 // Parse or config error
	ExitNoFiles     = 3 // No templates found (missing file, empty glob, empty directory)
)

// defaultTemplateGlob matches the file extensions djls treats as Django
// HTML templates when a lint target is a directory.
const defaultTemplateGlob = "**/*.html"

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Lint Django template(s) for issues",
		ArgsUsage: "[TEMPLATE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif, github-actions, markdown",
				Sources: cli.EnvVars("DJLS_FORMAT", "DJLS_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Sources: cli.EnvVars("DJLS_OUTPUT_PATH"),
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:    "show-source",
				Usage:   "Show source code snippets (default: true)",
				Value:   true,
				Sources: cli.EnvVars("DJLS_OUTPUT_SHOW_SOURCE"),
			},
			&cli.BoolFlag{
				Name:  "hide-source",
				Usage: "Hide source code snippets",
			},
			&cli.StringFlag{
				Name:    "fail-level",
				Usage:   "Minimum severity to cause non-zero exit: error, warning, info, hint, none",
				Sources: cli.EnvVars("DJLS_OUTPUT_FAIL_LEVEL"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "Glob pattern to exclude files (can be repeated)",
				Sources: cli.EnvVars("DJLS_EXCLUDE"),
			},
		},
		Action: runLint,
	}
}

func runLint(_ stdcontext.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	defer func() { _ = logger.Sync() }()

	targets := cmd.Args().Slice()
	if len(targets) == 0 {
		targets = []string{"."}
	}

	excludes := cmd.StringSlice("exclude")
	files, err := discoverTemplates(targets, excludes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no template files found")
		return cli.Exit("", ExitNoFiles)
	}

	failLevel, err := resolveFailLevel(cmd.String("fail-level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	cfg, err := loadLintConfig(cmd.String("config"), files[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	root := lintRoot(targets)
	project := lspserver.NewProject(root, cfg, logger)
	defer project.Close()

	var allDiags []diag.Diagnostic
	sources := make(map[string][]byte, len(files))

	for _, f := range files {
		content, readErr := os.ReadFile(f)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", f, readErr)
			return cli.Exit("", ExitConfigError)
		}
		sources[f] = content
		allDiags = append(allDiags, lspserver.RunPipeline(f, content, project, cfg)...)
	}

	chain := processor.NewChain(processor.NewDeduplication(), processor.NewSorting())
	allDiags = chain.Process(allDiags, processor.NewContext(files))

	rep, closeOutput, err := buildReporter(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	defer closeOutput()

	metadata := reporter.ReportMetadata{FilesScanned: len(files)}
	if err := rep.Report(allDiags, sources, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write report: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	if exceedsFailLevel(allDiags, failLevel) {
		return cli.Exit("", ExitViolations)
	}
	return nil
}

// discoverTemplates expands targets (files or directories) into a sorted,
// deduplicated list of template paths, applying doublestar exclude globs
// the same way the reference linter in this pack filters its file walk.
func discoverTemplates(targets, excludes []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	addFile := func(path string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if isExcluded(absPath, excludes) {
			return
		}
		if _, ok := seen[absPath]; ok {
			return
		}
		seen[absPath] = struct{}{}
		files = append(files, path)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", target, err)
		}
		if !info.IsDir() {
			addFile(target)
			continue
		}

		pattern := filepath.Join(target, defaultTemplateGlob)
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", target, err)
		}
		for _, m := range matches {
			addFile(m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// isExcluded reports whether absPath matches any of the doublestar exclude
// patterns. Relative patterns (no leading "/" or "**/") match at any
// directory depth, mirroring the reference linter's exclusion semantics.
func isExcluded(absPath string, excludePatterns []string) bool {
	pathSlash := filepath.ToSlash(absPath)

	for _, pattern := range excludePatterns {
		pattern = filepath.ToSlash(pattern)
		if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
			pattern = "**/" + pattern
		}
		if matched, err := doublestar.Match(pattern, pathSlash); err == nil && matched {
			return true
		}
	}
	return false
}

// lintRoot picks the directory newProject's inspector handshake runs
// against: the first explicit target if it's a directory, else its parent,
// falling back to the current working directory.
func lintRoot(targets []string) string {
	first := targets[0]
	if info, err := os.Stat(first); err == nil && info.IsDir() {
		return first
	}
	return filepath.Dir(first)
}

func loadLintConfig(explicitPath, firstFile string) (*config.Config, error) {
	if explicitPath != "" {
		return config.LoadFromFile(explicitPath)
	}
	return config.Load(firstFile)
}

func resolveFailLevel(s string) (diag.Severity, error) {
	if s == "" {
		return diag.SeverityHint, nil
	}
	if strings.EqualFold(s, "none") {
		return diag.SeverityOff, nil
	}
	return diag.ParseSeverity(s)
}

// exceedsFailLevel reports whether any diagnostic's severity is at or
// above (numerically <=) failLevel. SeverityOff as failLevel disables the
// check entirely (fail-level=none never causes a non-zero exit).
func exceedsFailLevel(diags []diag.Diagnostic, failLevel diag.Severity) bool {
	if failLevel == diag.SeverityOff {
		return false
	}
	for _, d := range diags {
		if d.Severity <= failLevel {
			return true
		}
	}
	return false
}

func buildReporter(cmd *cli.Command) (reporter.Reporter, func() error, error) {
	format, err := reporter.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, nil, err
	}

	writer, closeFn, err := reporter.GetWriter(cmd.String("output"))
	if err != nil {
		return nil, nil, err
	}

	showSource := cmd.Bool("show-source") && !cmd.Bool("hide-source")

	opts := reporter.DefaultOptions()
	opts.Format = format
	opts.Writer = writer
	opts.ShowSource = showSource
	if cmd.Bool("no-color") {
		noColor := false
		opts.Color = &noColor
	}
	opts.ToolVersion = version.RawVersion()

	rep, err := reporter.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return rep, closeFn, nil
}
