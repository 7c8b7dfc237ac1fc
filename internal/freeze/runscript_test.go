package freeze

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunScript_TeesOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.sh")
	writeFile(t, script, "echo to both streams\necho on stderr 1>&2\n")

	logPath := filepath.Join(dir, "run.log")
	var console bytes.Buffer

	exit, err := runScript(context.Background(), "sh", script, dir, logPath, &console)
	if err != nil {
		t.Fatalf("runScript returned error: %v", err)
	}
	if exit != 0 {
		t.Fatalf("exit = %d", exit)
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	for _, want := range []string{"to both streams", "on stderr"} {
		if !strings.Contains(string(logData), want) {
			t.Fatalf("run log missing %q:\n%s", want, logData)
		}
		if !strings.Contains(console.String(), want) {
			t.Fatalf("console missing %q:\n%s", want, console.String())
		}
	}
}

func TestRunScript_NilConsoleStillLogs(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.sh")
	writeFile(t, script, "echo quiet\n")

	logPath := filepath.Join(dir, "run.log")
	exit, err := runScript(context.Background(), "sh", script, dir, logPath, nil)
	if err != nil || exit != 0 {
		t.Fatalf("runScript = %d, %v", exit, err)
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(logData), "quiet") {
		t.Fatalf("run log missing output:\n%s", logData)
	}
}

func TestRunScript_ReportsExitCode(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.sh")
	writeFile(t, script, "exit 3\n")

	exit, err := runScript(context.Background(), "sh", script, dir, filepath.Join(dir, "run.log"), nil)
	if err != nil {
		t.Fatalf("a failing script is not a runScript error: %v", err)
	}
	if exit != 3 {
		t.Fatalf("exit = %d, want 3", exit)
	}
}

func TestRunScript_MissingInterpreter(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.sh")
	writeFile(t, script, "echo hi\n")

	_, err := runScript(context.Background(), "no-such-interpreter-xyz", script, dir, filepath.Join(dir, "run.log"), nil)
	if err == nil {
		t.Fatal("expected error for missing interpreter, got nil")
	}
}

func TestRunScript_HonorsContext(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "s.sh")
	writeFile(t, script, "sleep 10\n")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runScript(ctx, "sh", script, dir, filepath.Join(dir, "run.log"), nil)
	if err == nil {
		t.Fatal("expected error for canceled run, got nil")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("runScript did not stop promptly on context timeout")
	}
}
