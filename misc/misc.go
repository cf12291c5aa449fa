// Package misc holds build time information.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X twc/misc.version=... -X twc/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
)

const appName = "twc"

func GetAppName() string {
	return appName
}

// GetVersion returns the program version.
func GetVersion() string {
	return version
}

// GetGitHash returns the commit the program was built from, falling back
// to the VCS stamp of the module when ldflags were not set.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 8 {
					return s.Value[:8]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
