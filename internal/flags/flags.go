package flags

// Package flags defines canonical CLI flag names shared across the CLI and the
// operation engines. Keeping these as constants helps avoid drift between Cobra
// flag wiring and other code paths that need to reference flags (e.g. manifest
// reproducibility command generation).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Combine.LogsDir, flags.FlagLogsDir, "", "...")
//	arg := "--" + flags.FlagLogsDir
const (
	// Pipeline
	FlagRoot       = "root"
	FlagConfigFile = "config"

	// Combine
	FlagLogsDir    = "logs-dir"
	FlagPattern    = "pattern"
	FlagCombined   = "combined"
	FlagAllowEmpty = "allow-empty"
	FlagWatch      = "watch"

	// Freeze
	FlagScript      = "script"
	FlagInterpreter = "interpreter"
	FlagOutputsDir  = "outputs-dir"
	FlagRequired    = "required"
	FlagOptional    = "optional"
	FlagFreezeRoot  = "freeze-root"
	FlagSkipRun     = "skip-run"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagNoConsole     = "no-console"
	FlagQuiet         = "quiet"

	// Runtime
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"
)
