// Package version carries the build identity printed by "metadocs version".
package version

import "fmt"

// Version is overridden at link time:
// go build -ldflags "-X git.home.luguber.info/inful/metadocs/internal/version.Version=v0.5.0".
var Version = "0.4"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the one-line version banner.
func String() string {
	return "metadocs " + Version
}

// Long adds the commit and build time to String.
func Long() string {
	return fmt.Sprintf("%s (commit %s, built %s)", String(), GitCommit, BuildTime)
}
