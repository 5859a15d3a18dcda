// Package version carries build metadata stamped by the linker.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the banner printed by murmur --version.
func String() string {
	return fmt.Sprintf("murmur %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}
