package version

import "fmt"

// These are set at build time via -ldflags "-X ..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the version string shown by --version
func String() string {
	if Commit == "none" && Date == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
