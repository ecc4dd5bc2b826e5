package version

import (
	"fmt"
	"runtime"
)

// AppName identifies the engine in version output and startup logs.
const AppName = "argencoin-engine"

// Build information. Populated at build-time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains the build-time information.
type BuildInfo struct {
	App       string `json:"app"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// Get returns the build information.
func Get() BuildInfo {
	return BuildInfo{
		App:       AppName,
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
	}
}

// String returns a formatted multi-line version report.
func String() string {
	info := Get()
	return fmt.Sprintf("%s\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s",
		info.App, info.Version, info.BuildTime, info.GitCommit, info.GoVersion)
}

// Short returns a short version string for log lines.
func Short() string {
	if GitCommit != "unknown" && len(GitCommit) > 7 {
		return fmt.Sprintf("%s (%s)", Version, GitCommit[:7])
	}
	return Version
}
