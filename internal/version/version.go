// Package version carries build metadata stamped via ldflags.
package version

import "fmt"

// Version is the application version. Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/mdincl/internal/version.Version=v1.2.0".
var Version = "unknown"

// Additional build metadata, stamped the same way.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version, with commit and build time when known.
func String() string {
	s := Version
	if GitCommit != "unknown" {
		s += fmt.Sprintf(" (%s)", GitCommit)
	}
	if BuildTime != "unknown" {
		s += fmt.Sprintf(", built %s", BuildTime)
	}
	return s
}
