// Package version holds build metadata stamped in with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Version is set at build time with -ldflags "-X github.com/umsi-mads/mads/pkg/version.Version=v1.2.3".
var Version = "0.0.0-dev"

// Commit is the source revision set at build time.
var Commit = ""

// String renders the version line printed by mads version.
func String() string {
	s := fmt.Sprintf("mads %s on %s/%s", Version, runtime.GOOS, runtime.GOARCH)
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	return s
}
