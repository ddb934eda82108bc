// Package version carries build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/itsmostafa/irisdash/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns the full build description shown by --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Info returns the metadata as a map for JSON responses.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
	}
}
