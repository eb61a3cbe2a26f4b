// Package version carries build metadata stamped in with -ldflags -X.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Short is the bare version, with a short commit for untagged dev builds.
func Short() string {
	if Version == "dev" && Commit != "" {
		return fmt.Sprintf("dev+%s", shortCommit(Commit))
	}
	return Version
}

// Full is the --version line. Unset commit and date are left out.
func Full() string {
	line := "live-watcher " + Short()
	if Version != "dev" && Commit != "" {
		line += fmt.Sprintf(" (%s)", shortCommit(Commit))
	}
	if Date != "" {
		line += ", built " + Date
	}
	return line
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
