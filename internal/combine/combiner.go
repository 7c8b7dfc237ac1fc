// Package combine implements the log combiner: it concatenates a directory's
// matching log files into a single combined report with file-boundary markers.
package combine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"runledger/internal/config"
	"runledger/internal/output"
)

// markerRule separates the boundary header from surrounding content.
const markerRule = "========================================"

// Summary describes one completed combine pass.
type Summary struct {
	Files    int
	Bytes    int64
	ReportAt string
}

type Combiner struct {
	cfg *config.Config
	out *output.Manager
}

func New(cfg *config.Config, out *output.Manager) *Combiner {
	return &Combiner{cfg: cfg, out: out}
}

// Run performs one combine pass: enumerate, concatenate, atomically replace
// the combined report.
func (c *Combiner) Run(ctx context.Context) (*Summary, error) {
	logsDir := c.cfg.ResolvePath(c.cfg.Combine.LogsDir)
	reportPath := c.cfg.ResolvePath(c.cfg.Combine.Combined)

	_ = c.out.Write(output.Event{Type: "run.started", Op: "combine"})

	files, err := c.enumerate(logsDir, reportPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 && !c.cfg.Combine.AllowEmpty {
		return nil, fmt.Errorf("no files in %s match %q", logsDir, c.cfg.Combine.Pattern)
	}

	summary, err := c.writeReport(ctx, files, reportPath)
	if err != nil {
		return nil, err
	}

	_ = c.out.Write(output.Event{Type: "run.finished", Op: "combine", Files: summary.Files})
	return summary, nil
}

// enumerate returns the matching files in logsDir, sorted by name so the
// report order is deterministic. The report itself is excluded from the
// input set so repeated runs do not self-concatenate.
func (c *Combiner) enumerate(logsDir, reportPath string) ([]string, error) {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return nil, fmt.Errorf("read logs directory %s: %w", logsDir, err)
	}

	reportAbs, _ := filepath.Abs(reportPath)

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := filepath.Match(c.cfg.Combine.Pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", c.cfg.Combine.Pattern, err)
		}
		if !matched {
			continue
		}
		p := filepath.Join(logsDir, entry.Name())
		if abs, err := filepath.Abs(p); err == nil && abs == reportAbs {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

func (c *Combiner) writeReport(ctx context.Context, files []string, reportPath string) (*Summary, error) {
	dir := filepath.Dir(reportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(reportPath)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	abort := func(err error) (*Summary, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return nil, err
	}

	w := &tailWriter{w: tmp}
	summary := &Summary{ReportAt: reportPath}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		if _, err := fmt.Fprintf(w, "%s\n==> %s <==\n%s\n", markerRule, filepath.Base(path), markerRule); err != nil {
			return abort(fmt.Errorf("write marker: %w", err))
		}

		n, err := appendFile(w, path)
		if err != nil {
			return abort(err)
		}
		// Guarantee a newline between this file's tail and the next marker.
		if n > 0 && w.last != '\n' {
			if _, err := w.Write([]byte{'\n'}); err != nil {
				return abort(fmt.Errorf("write separator: %w", err))
			}
		}

		summary.Files++
		summary.Bytes += n
		_ = c.out.Write(output.Result{
			Op:     "combine",
			Item:   filepath.Base(path),
			Status: output.StatusOK,
			Path:   reportPath,
			Bytes:  n,
		})
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpName, reportPath); err != nil {
		_ = os.Remove(tmpName)
		return nil, fmt.Errorf("replace report %s: %w", reportPath, err)
	}
	return summary, nil
}

func appendFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	n, err := io.Copy(w, f)
	if err != nil {
		return n, fmt.Errorf("append %s: %w", path, err)
	}
	return n, nil
}

// tailWriter tracks the last byte written so the combiner can tell whether a
// source file ended with a newline.
type tailWriter struct {
	w    io.Writer
	last byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.last = p[n-1]
	}
	return n, err
}
