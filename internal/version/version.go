package version

var (
	// Version is the release version, set with -ldflags at build time.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"
)

// UserAgent is the User-Agent header sent with every probe.
func UserAgent() string {
	return "playlistcheck/" + Version
}
