package config

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults returned error: %v", err)
	}
	if cfg.Combine.Pattern != "*.out.txt" {
		t.Fatalf("unexpected default pattern: %q", cfg.Combine.Pattern)
	}
	if cfg.Freeze.Interpreter != "python3" {
		t.Fatalf("unexpected default interpreter: %q", cfg.Freeze.Interpreter)
	}
}

func TestValidate_NormalizesCommaDelimitedArtifacts(t *testing.T) {
	cfg := New()
	cfg.Freeze.Required = []string{"a.csv, b.csv", "c.csv", ",,"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	want := []string{"a.csv", "b.csv", "c.csv"}
	if !reflect.DeepEqual(cfg.Freeze.Required, want) {
		t.Fatalf("Required normalized mismatch: got %v want %v", cfg.Freeze.Required, want)
	}
}

func TestValidate_RejectsBadPattern(t *testing.T) {
	cfg := New()
	cfg.Combine.Pattern = "[unclosed"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid pattern, got nil")
	}
}

func TestValidate_RejectsEscapingArtifacts(t *testing.T) {
	for _, bad := range []string{"../outside.csv", "/etc/passwd", "sub/../../outside.csv"} {
		cfg := New()
		cfg.Freeze.Optional = []string{bad}
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for artifact %q, got nil", bad)
		}
	}
}

func TestValidate_AllowsDotsInsideArtifactNames(t *testing.T) {
	for _, ok := range []string{"report..csv", "sub/metrics..v2.txt", "trailing...csv"} {
		cfg := New()
		cfg.Freeze.Optional = []string{ok}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("artifact %q should validate, got %v", ok, err)
		}
	}
}

func TestValidate_RejectsBadConsoleFormat(t *testing.T) {
	cfg := New()
	cfg.Output.ConsoleFormat = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for console format xml, got nil")
	}
	if !strings.Contains(err.Error(), "--console-format") {
		t.Fatalf("error should mention the flag: %v", err)
	}
}

func TestValidate_InfersOutFormatFromExtension(t *testing.T) {
	tests := []struct {
		out     string
		format  string
		wantErr bool
	}{
		{out: "results.json", format: "json"},
		{out: "results.ndjson", format: "ndjson"},
		{out: "results.csv", wantErr: true},
		{out: "results", wantErr: true},
	}
	for _, tc := range tests {
		cfg := New()
		cfg.Output.Out = tc.out
		err := cfg.Validate()
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got nil", tc.out)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Validate() returned error: %v", tc.out, err)
		}
		if cfg.Output.OutFormat != tc.format {
			t.Fatalf("%s: inferred format %q, want %q", tc.out, cfg.Output.OutFormat, tc.format)
		}
	}
}

func TestValidate_RuntimeBounds(t *testing.T) {
	cfg := New()
	cfg.Runtime.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for concurrency 0, got nil")
	}

	cfg = New()
	cfg.Runtime.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for timeout 0, got nil")
	}
}

func TestResolvePath(t *testing.T) {
	cfg := New()
	cfg.Pipeline.Root = "/pipeline"

	if got := cfg.ResolvePath("logs"); got != filepath.Join("/pipeline", "logs") {
		t.Fatalf("relative path not resolved against root: %q", got)
	}
	if got := cfg.ResolvePath("/abs/logs"); got != "/abs/logs" {
		t.Fatalf("absolute path should pass through: %q", got)
	}
	if got := cfg.ResolvePath(""); got != "" {
		t.Fatalf("empty path should pass through: %q", got)
	}
}
