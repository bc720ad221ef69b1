// Package version carries build metadata stamped with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/trajfix/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("trajfix %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}
