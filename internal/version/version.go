// Package version contains version information.
package version

// Version information for berth, set via -ldflags at build time.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the full version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build metadata
func GetFullVersion() string {
	return Version + " (build: " + BuildDate + ", commit: " + GitCommit + ")"
}

// UserAgent is the User-Agent header berth sends to the daemon.
func UserAgent() string {
	if Version == "" {
		return "berth"
	}
	return "berth/" + Version
}
