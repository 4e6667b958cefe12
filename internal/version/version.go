// Package version exposes the build-time version string and structured
// build metadata for the version command and the LSP server's
// initialize response.
package version

import (
	"runtime"
	"runtime/debug"
	"slices"
)

var version = "dev"

// Version returns the current version string with the VCS commit suffix,
// when build info carries one.
func Version() string {
	_, commit := readBuildInfo()
	if commit != "" {
		return version + " (" + commit + ")"
	}
	return version
}

// RawVersion returns the semantic version string without any suffix.
func RawVersion() string {
	return version
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

// TreeSitterVersion returns the linked tree-sitter grammar module's
// version from build info.
func TreeSitterVersion() string {
	ts, _ := readBuildInfo()
	return ts
}

// readBuildInfo reads debug.ReadBuildInfo once and extracts both the
// pinned tree-sitter grammar dependency version and the VCS revision.
func readBuildInfo() (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	var treeSitterVersion, commit string
	if idx := slices.IndexFunc(info.Deps, func(dep *debug.Module) bool {
		return dep.Path == "github.com/smacker/go-tree-sitter"
	}); idx >= 0 {
		treeSitterVersion = info.Deps[idx].Version
	}
	if idx := slices.IndexFunc(info.Settings, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	}); idx >= 0 {
		val := info.Settings[idx].Value
		if len(val) > 12 {
			commit = val[:12]
		} else {
			commit = val
		}
	}
	return treeSitterVersion, commit
}

// Info holds structured version information for machine-readable output.
type Info struct {
	Version           string   `json:"version"`
	TreeSitterVersion string   `json:"treeSitterVersion,omitempty"`
	Platform          Platform `json:"platform"`
	GoVersion         string   `json:"goVersion"`
	GitCommit         string   `json:"gitCommit,omitempty"`
}

// Platform describes the OS and architecture.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	treeSitterVersion, commit := readBuildInfo()
	return Info{
		Version:           RawVersion(),
		TreeSitterVersion: treeSitterVersion,
		Platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		GoVersion: GoVersion(),
		GitCommit: commit,
	}
}
