// This file contains build information set through -ldflags at link time.
// The demo binary prints it with -print_version and the invariant helper reads TestMode from it.
// CAUTION: This file shouldn't be removed or else the linker flags wouldn't have a target.

package utils

import (
	"log/slog"
	"strconv"
	"time"
)

var (
	TestMode   string // Should be "true" when running tests with invariant panics enabled.
	IsTestMode bool
	Version    string
	Commit     string
	BuildTime  string
	StartTime  time.Time
)

// defaultVersion is reported by binaries built without -ldflags; it is still a valid semantic version.
const defaultVersion = "v0.1.0-dev"

func init() {
	StartTime = time.Now()

	if Version == "" {
		Version = defaultVersion
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if BuildTime == "" {
		BuildTime = "unknown"
	}
	if len(TestMode) > 0 {
		if isTestMode, err := strconv.ParseBool(TestMode); err == nil {
			IsTestMode = isTestMode
		} else {
			slog.Warn("Failed to parse TestMode build flag, defaulting to false", "error", err)
		}
	}
}

// Uptime returns how long the process has been running.
func Uptime() time.Duration {
	return time.Since(StartTime)
}
