// Package buildinfo holds version information stamped in at link time:
//
//	go build -ldflags "-X github.com/fakturownik/fakturownik/internal/buildinfo.Version=v1.2.0"
package buildinfo

import "fmt"

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the version line shown by --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
