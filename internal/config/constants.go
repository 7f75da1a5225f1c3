// Package config holds the handful of fixed constants Pepper's CLI and
// core need, matching the teacher's own internal/config/constants.go
// style: plain exported consts, no flag library or config file format,
// since the original C implementation has no configuration beyond argv.
package config

// SourceFileExt is the conventional extension for Pepper source files.
const SourceFileExt = ".pep"

// Version is the banner the CLI prints for --version.
const Version = "0.1.0"

// HistoryFileName is the REPL's readline history file, written under the
// user's home directory.
const HistoryFileName = ".pepper_history"

// Initial capacities named directly from spec.md §4.4.
const (
	StackSize  = 2048
	MaxFrames  = 1024
	GlobalsCap = 512
)

// DebugEnvVar, when set to "1", turns on the JSON debug log handler
// alongside the always-on stderr text handler.
const DebugEnvVar = "PEPPER_DEBUG"
