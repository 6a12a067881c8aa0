// Package version reports which btg build produced a binary or a palette file.
// Release builds set the variables below with ldflags; `go install` builds fall
// back to the module and VCS stamps embedded by the toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

var (
	// Version is set with -ldflags "-X github.com/jmylchreest/btg/internal/version.Version=x.y.z".
	Version = "dev"
	// Commit is set with -ldflags "-X github.com/jmylchreest/btg/internal/version.Commit=$(git rev-parse HEAD)".
	Commit = unknown
	// Date is set with -ldflags "-X github.com/jmylchreest/btg/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)".
	Date = unknown
)

// readBuildInfo is swapped out in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes a build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build description, preferring ldflags values and filling
// the rest from embedded build info.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// ShortCommit returns the first eight characters of the commit hash.
func (i Info) ShortCommit() string {
	return i.Commit[:min(8, len(i.Commit))]
}

// String returns a human-readable version line.
func String() string {
	info := GetInfo()
	if info.Commit == unknown {
		return fmt.Sprintf("btg version %s (%s, %s)", info.Version, info.GoVersion, info.Platform)
	}

	commit := info.ShortCommit()
	if info.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("btg version %s (commit: %s, built: %s, %s, %s)",
		info.Version, commit, info.Date, info.GoVersion, info.Platform)
}

// Short returns the bare version, used for --version and the generator field
// of written palette files.
func Short() string {
	return GetInfo().Version
}
