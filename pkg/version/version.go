// Package version provides build and version information for jump.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped with -ldflags "-X github.com/Aman-CERP/jump/pkg/version.Version=..."
// by release builds. Values left unset are filled from the module build
// info at init.
var (
	Version = "dev"
	Commit  = "unknown"
	// Date is RFC3339.
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is the `jump version --json` document.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func init() {
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(bi)
	}
}

// applyBuildInfo fills what ldflags left unset from the module and VCS
// stamps of a `go install` build.
func applyBuildInfo(bi *debug.BuildInfo) {
	if Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		}
	}
}

// String is the one-line form printed by `jump version`.
func String() string {
	return fmt.Sprintf("jump %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

func Short() string {
	return Version
}

func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
