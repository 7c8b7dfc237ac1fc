package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the pipeline file looked up under the pipeline root when
// --config is not given.
const DefaultFileName = "runledger.yaml"

// fileConfig mirrors the pipeline file schema. All keys are optional; absent
// keys leave the corresponding Config field untouched so CLI flags and
// built-in defaults still apply.
type fileConfig struct {
	LogsDir  string `yaml:"logs_dir"`
	Pattern  string `yaml:"pattern"`
	Combined string `yaml:"combined"`

	Script      string   `yaml:"script"`
	Interpreter string   `yaml:"interpreter"`
	OutputsDir  string   `yaml:"outputs_dir"`
	Required    []string `yaml:"required_outputs"`
	Optional    []string `yaml:"optional_artifacts"`
	FreezeRoot  string   `yaml:"freeze_root"`

	Concurrency int    `yaml:"concurrency"`
	Timeout     string `yaml:"timeout"`
}

// LoadFile merges the pipeline file into cfg. Fields already changed on the
// command line win; changedFlags reports which flag names the user set.
//
// Lookup order:
//  1. cfg.Pipeline.ConfigFile, if set (missing file is an error)
//  2. <root>/runledger.yaml, if it exists (missing file is fine)
func LoadFile(cfg *Config, changedFlags map[string]bool) error {
	path := cfg.Pipeline.ConfigFile
	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.Pipeline.Root, DefaultFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read pipeline file %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("pipeline file %s is empty", path)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return fmt.Errorf("decode pipeline file %s: %w", path, err)
	}

	changed := func(name string) bool { return changedFlags[name] }

	setString := func(flagName string, dst *string, v string) {
		if v != "" && !changed(flagName) {
			*dst = v
		}
	}
	setList := func(flagName string, dst *[]string, v []string) {
		if len(v) > 0 && !changed(flagName) {
			*dst = v
		}
	}

	setString("logs-dir", &cfg.Combine.LogsDir, fc.LogsDir)
	setString("pattern", &cfg.Combine.Pattern, fc.Pattern)
	setString("combined", &cfg.Combine.Combined, fc.Combined)

	setString("script", &cfg.Freeze.Script, fc.Script)
	setString("interpreter", &cfg.Freeze.Interpreter, fc.Interpreter)
	setString("outputs-dir", &cfg.Freeze.OutputsDir, fc.OutputsDir)
	setList("required", &cfg.Freeze.Required, fc.Required)
	setList("optional", &cfg.Freeze.Optional, fc.Optional)
	setString("freeze-root", &cfg.Freeze.FreezeRoot, fc.FreezeRoot)

	if fc.Concurrency != 0 && !changed("concurrency") {
		cfg.Runtime.Concurrency = fc.Concurrency
	}
	if fc.Timeout != "" && !changed("timeout") {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("pipeline file %s: invalid timeout %q: %w", path, fc.Timeout, err)
		}
		cfg.Runtime.Timeout = d
	}

	return nil
}
