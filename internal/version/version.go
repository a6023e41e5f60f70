package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time with -ldflags "-X github.com/larsks/doorbell/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// String returns a one-line version description.
func String() string {
	commit := Commit
	if commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}

	if len(commit) > 12 {
		commit = commit[:12]
	}

	s := fmt.Sprintf("doorbell %s", Version)
	if commit != "" {
		s += fmt.Sprintf(" (%s)", commit)
	}
	if BuildDate != "" {
		s += fmt.Sprintf(" built %s", BuildDate)
	}
	return s
}

// ShowVersion prints the version to stdout.
func ShowVersion() {
	fmt.Println(String())
}
