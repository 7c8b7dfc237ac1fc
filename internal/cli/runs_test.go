package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"runledger/internal/freeze"
)

func sampleManifest() *freeze.Manifest {
	return &freeze.Manifest{
		Tag:         "v20260830_142501",
		RunID:       "run-id-1",
		FrozenAt:    time.Date(2026, 8, 30, 14, 25, 1, 0, time.UTC),
		Status:      freeze.StatusOK,
		Script:      "/pipe/stage2_make_master.py",
		FrozenCopy:  "/pipe/_frozen/v20260830_142501/stage2_make_master.py",
		Interpreter: "python3",
		GitCommit:   "0123456789abcdef0123456789abcdef01234567",
		Duration:    "1.5s",
		Artifacts: []freeze.Artifact{
			{Name: "patient_stage_summary.csv", Frozen: "/pipe/_frozen/v20260830_142501/patient_stage_summary_v20260830_142501.csv", SHA256: "abc", Bytes: 42},
			{Name: "validation_merged.csv", Frozen: "/pipe/_frozen/v20260830_142501/validation_merged_v20260830_142501.csv", SHA256: "def", Bytes: 7, Optional: true},
		},
	}
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	printRun(&buf, sampleManifest())
	got := buf.String()

	for _, want := range []string{
		"RUN: v20260830_142501",
		"Run ID:      run-id-1",
		"Status:      ok",
		"Script:      /pipe/stage2_make_master.py",
		"Git commit:  0123456789abcdef0123456789abcdef01234567",
		"patient_stage_summary.csv (required)",
		"validation_merged.csv (optional)",
		"SHA256: abc",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("printRun output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintRun_OmitsEmptyOptionalFields(t *testing.T) {
	m := sampleManifest()
	m.GitCommit = ""
	m.Duration = ""
	m.Artifacts = nil

	var buf bytes.Buffer
	printRun(&buf, m)
	got := buf.String()

	if strings.Contains(got, "Git commit") {
		t.Fatalf("empty git commit printed:\n%s", got)
	}
	if strings.Contains(got, "Artifacts:") {
		t.Fatalf("empty artifact section printed:\n%s", got)
	}
}

func TestPrintRunLine(t *testing.T) {
	var buf bytes.Buffer
	printRunLine(&buf, sampleManifest())
	got := buf.String()

	if !strings.Contains(got, "v20260830_142501") || !strings.Contains(got, "(2 artifact(s))") {
		t.Fatalf("unexpected list line: %s", got)
	}
}

func TestRunsList_HonorsFreezeRootFlag(t *testing.T) {
	root := t.TempDir()
	freezeRoot := filepath.Join(root, "elsewhere")
	runDir := filepath.Join(freezeRoot, "v20260101_000000")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("mkdir run dir: %v", err)
	}
	m := &freeze.Manifest{
		Tag:      "v20260101_000000",
		FrozenAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:   freeze.StatusOK,
	}
	if err := m.Write(runDir); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	oldRoot, oldFreezeRoot := cfg.Pipeline.Root, cfg.Freeze.FreezeRoot
	t.Cleanup(func() {
		cfg.Pipeline.Root, cfg.Freeze.FreezeRoot = oldRoot, oldFreezeRoot
		runsListQuiet = false
		rootCmd.PersistentFlags().Lookup("root").Changed = false
		runsCmd.PersistentFlags().Lookup("freeze-root").Changed = false
		runsListCmd.Flags().Lookup("quiet").Changed = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"runs", "list", "--quiet", "--root", root, "--freeze-root", freezeRoot})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("runs list: %v", err)
	}

	if !strings.Contains(buf.String(), "v20260101_000000") {
		t.Fatalf("run under custom freeze root not listed:\n%s", buf.String())
	}
}

func TestChangedFlags(t *testing.T) {
	cmd := combineCmd
	if err := cmd.Flags().Set("pattern", "*.log"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Flags().Set("pattern", "*.out.txt")
		cmd.Flags().Lookup("pattern").Changed = false
	})

	changed := changedFlags(cmd)
	if !changed["pattern"] {
		t.Fatalf("pattern not reported as changed: %v", changed)
	}
	if changed["logs-dir"] {
		t.Fatalf("logs-dir incorrectly reported as changed: %v", changed)
	}
}
