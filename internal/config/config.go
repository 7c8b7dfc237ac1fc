package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// operation behavior, keep these in sync:
	// - CLI flags in internal/cli/combine.go and internal/cli/freeze.go
	// - pipeline file keys in internal/config/file.go
	Pipeline Pipeline
	Combine  Combine
	Freeze   Freeze
	Output   Output
	Runtime  Runtime
}

type Pipeline struct {
	// Root is the pipeline working directory all relative paths resolve
	// against (see --root). Defaults to the current directory.
	Root string

	// ConfigFile is an explicit path to the pipeline file (see --config).
	// If empty, <root>/runledger.yaml is loaded when it exists.
	ConfigFile string
}

type Combine struct {
	// LogsDir is the directory scanned for log files (see --logs-dir).
	LogsDir string

	// Pattern is the glob matched against file names in LogsDir
	// (see --pattern). Go filepath.Match syntax.
	Pattern string

	// Combined is the path the combined report is written to
	// (see --combined). It may live inside LogsDir; it is always excluded
	// from the input set.
	Combined string

	// AllowEmpty writes an empty report instead of failing when no files
	// match (see --allow-empty).
	AllowEmpty bool

	// Watch re-runs the combine whenever a matching file changes
	// (see --watch).
	Watch bool
}

type Freeze struct {
	// Script is the processing script to freeze and run (see --script).
	Script string

	// Interpreter is the command the frozen script is executed with
	// (see --interpreter).
	Interpreter string

	// OutputsDir is the directory the script writes its outputs to
	// (see --outputs-dir).
	OutputsDir string

	// Required lists output files (relative to OutputsDir) that must exist
	// after the run (see --required). Values may be provided as repeated
	// flags and/or comma-separated lists. A missing required output fails
	// the freeze.
	Required []string

	// Optional lists artifacts copied best-effort (see --optional).
	// Same input rules as Required. A missing optional artifact is skipped
	// with a warning.
	Optional []string

	// FreezeRoot is the directory version-tagged freeze directories are
	// created under (see --freeze-root).
	FreezeRoot string

	// SkipRun freezes the script and existing outputs without executing
	// the script (see --skip-run).
	SkipRun bool
}

type Output struct {
	// ConsoleFormat controls the human-facing console sink format
	// (see --console-format). Allowed values: text, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the
	// --out file extension.
	OutFormat string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency bounds parallel artifact copies during a freeze
	// (see --concurrency). Must be >= 1.
	Concurrency int

	// Timeout is the global timeout for the operation, including the
	// frozen script's execution (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose enables more detailed diagnostics (full copy paths, git
	// resolution details).
	Verbose bool
}

func New() *Config {
	return &Config{
		Pipeline: Pipeline{
			Root: ".",
		},
		Combine: Combine{
			LogsDir:  "logs",
			Pattern:  "*.out.txt",
			Combined: filepath.Join("logs", "combined.out.txt"),
		},
		Freeze: Freeze{
			Interpreter: "python3",
			OutputsDir:  "_outputs",
			FreezeRoot:  "_frozen",
			Required: []string{
				"patient_stage_summary.csv",
				"stage_event_level.csv",
			},
			Optional: []string{
				"validation_metrics.txt",
				"validation_mismatches.csv",
				"validation_merged.csv",
			},
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 4,
			Timeout:     30 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Freeze.Required = splitCommaList(c.Freeze.Required)
	c.Freeze.Optional = splitCommaList(c.Freeze.Optional)

	if strings.TrimSpace(c.Pipeline.Root) == "" {
		c.Pipeline.Root = "."
	}

	// Combine validation
	if strings.TrimSpace(c.Combine.Pattern) == "" {
		return errors.New("--pattern must not be empty")
	}
	if _, err := filepath.Match(c.Combine.Pattern, "probe"); err != nil {
		return fmt.Errorf("invalid --pattern %q: %w", c.Combine.Pattern, err)
	}
	if strings.TrimSpace(c.Combine.LogsDir) == "" {
		return errors.New("--logs-dir must not be empty")
	}
	if strings.TrimSpace(c.Combine.Combined) == "" {
		return errors.New("--combined must not be empty")
	}

	// Freeze validation
	if strings.TrimSpace(c.Freeze.Interpreter) == "" {
		return errors.New("--interpreter must not be empty")
	}
	if strings.TrimSpace(c.Freeze.OutputsDir) == "" {
		return errors.New("--outputs-dir must not be empty")
	}
	if strings.TrimSpace(c.Freeze.FreezeRoot) == "" {
		return errors.New("--freeze-root must not be empty")
	}
	for _, rel := range append(append([]string{}, c.Freeze.Required...), c.Freeze.Optional...) {
		if filepath.IsAbs(rel) {
			return fmt.Errorf("artifact %q must be relative to --outputs-dir", rel)
		}
		if escapesParent(rel) {
			return fmt.Errorf("artifact %q must not escape --outputs-dir", rel)
		}
	}

	// Output validation
	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, ndjson)", c.Output.ConsoleFormat)
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else {
			if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
				return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
			}
		}
	}

	return nil
}

// ResolvePath resolves a possibly relative path against the pipeline root.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Pipeline.Root, p)
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// escapesParent reports whether a cleaned relative path climbs out of its
// base directory. Only whole ".." segments count, so names like
// "report..csv" stay valid.
func escapesParent(rel string) bool {
	cleaned := filepath.ToSlash(filepath.Clean(rel))
	for _, seg := range strings.Split(cleaned, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
