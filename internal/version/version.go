// Package version carries build metadata, set with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"     // ex: v0.3.0
	Commit    = "none"    // ex: abcd123
	BuildDate = "unknown" // ex: 2026-03-01T18:42:00Z
	GoVersion = runtime.Version()
)

// String is the one-line form used by --version and the startup log.
func String() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, %s)", Version, Commit, BuildDate, GoVersion)
}
