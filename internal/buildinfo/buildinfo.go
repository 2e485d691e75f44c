// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "strings"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/courseai-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/courseai-go/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/courseai-go/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the version, or "dev" for local builds.
func Release() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// String renders a one-line summary such as "v1.2.0 (abc1234, 2026-01-02T03:04:05Z)".
func String() string {
	var extra []string
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		extra = append(extra, c)
	}
	if BuildDate != "" {
		extra = append(extra, BuildDate)
	}
	if len(extra) == 0 {
		return Release()
	}
	return Release() + " (" + strings.Join(extra, ", ") + ")"
}
