// Package version exposes the build metadata stamped into the xtreamctl
// binary. Release builds overwrite the defaults through -ldflags -X; a plain
// `go build` reports a dev binary.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Stamped at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the version payload rendered by `xtreamctl version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo collects the stamped metadata plus runtime facts.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns the bare version number, used for cobra's --version output.
func Short() string {
	return Version
}

// String renders the one-line form printed by `xtreamctl version`.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("xtreamctl %s (%s, built %s, %s)", info.Version, commit, info.Date, info.GoVersion)
}

// JSON renders the indented form printed by `xtreamctl version --json`.
func JSON() string {
	data, err := json.MarshalIndent(GetInfo(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
