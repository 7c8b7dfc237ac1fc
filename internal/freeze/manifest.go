package freeze

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"runledger/internal/fsutil"
)

// ManifestName is the manifest file written into each freeze directory. Its
// presence marks a complete freeze; a tag directory without one is an
// aborted run and is ignored by listing.
const ManifestName = "manifest.yaml"

// Run statuses recorded in the manifest.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Artifact records one file copied into the freeze directory.
type Artifact struct {
	Name     string `yaml:"name" json:"name"`
	Source   string `yaml:"source" json:"source"`
	Frozen   string `yaml:"frozen" json:"frozen"`
	SHA256   string `yaml:"sha256" json:"sha256"`
	Bytes    int64  `yaml:"bytes" json:"bytes"`
	Optional bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Manifest is the provenance record of one frozen run.
type Manifest struct {
	Tag         string     `yaml:"tag" json:"tag"`
	RunID       string     `yaml:"run_id" json:"run_id"`
	FrozenAt    time.Time  `yaml:"frozen_at" json:"frozen_at"`
	Status      string     `yaml:"status" json:"status"`
	Script      string     `yaml:"script" json:"script"`
	FrozenCopy  string     `yaml:"frozen_copy" json:"frozen_copy"`
	Interpreter string     `yaml:"interpreter,omitempty" json:"interpreter,omitempty"`
	ScriptExit  int        `yaml:"script_exit" json:"script_exit"`
	Duration    string     `yaml:"duration,omitempty" json:"duration,omitempty"`
	GitCommit   string     `yaml:"git_commit,omitempty" json:"git_commit,omitempty"`
	ToolVersion string     `yaml:"runledger_version,omitempty" json:"runledger_version,omitempty"`
	Artifacts   []Artifact `yaml:"artifacts" json:"artifacts"`
}

// Write persists the manifest into dir atomically. It is written last so a
// manifest's existence implies the freeze it describes is complete.
func (m *Manifest) Write(dir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestName)
	if err := fsutil.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest from a freeze directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if m.Tag == "" {
		return nil, fmt.Errorf("manifest %s has no tag", path)
	}
	return &m, nil
}

// ListRuns returns the manifests under freezeRoot, newest first. Tag
// directories without a manifest (aborted freezes) are skipped. A missing
// freeze root means no runs, not an error.
func ListRuns(freezeRoot string) ([]*Manifest, error) {
	entries, err := os.ReadDir(freezeRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read freeze root %s: %w", freezeRoot, err)
	}

	var runs []*Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m, err := ReadManifest(filepath.Join(freezeRoot, entry.Name()))
		if err != nil {
			continue
		}
		runs = append(runs, m)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].FrozenAt.After(runs[j].FrozenAt)
	})
	return runs, nil
}

// FindRun returns the manifest for one tag under freezeRoot.
func FindRun(freezeRoot, tag string) (*Manifest, error) {
	m, err := ReadManifest(filepath.Join(freezeRoot, tag))
	if err != nil {
		return nil, fmt.Errorf("run not found: %s", tag)
	}
	return m, nil
}
