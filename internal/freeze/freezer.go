// Package freeze implements the run freezer: it snapshots a processing
// script under an immutable version tag, runs the frozen copy, copies its
// output artifacts to version-tagged filenames, and writes a provenance
// manifest.
package freeze

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"runledger/internal/config"
	"runledger/internal/fsutil"
	"runledger/internal/output"
)

// RunLogName is the file in each freeze directory capturing the frozen
// script's combined stdout/stderr.
const RunLogName = "run.log"

type Freezer struct {
	cfg *config.Config
	out *output.Manager

	// ToolVersion is recorded in the manifest (set from build info).
	ToolVersion string
	// Console, when non-nil, receives a live tee of the script's output.
	Console io.Writer

	now   func() time.Time
	newID func() string
}

func New(cfg *config.Config, out *output.Manager) *Freezer {
	return &Freezer{
		cfg:   cfg,
		out:   out,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Run performs one freeze. On script failure the freeze directory, run log,
// and a status "failed" manifest are still written before the error returns:
// a failed run's evidence is exactly what the operator needs next.
func (f *Freezer) Run(ctx context.Context) (*Manifest, error) {
	script := f.cfg.ResolvePath(f.cfg.Freeze.Script)
	if strings.TrimSpace(f.cfg.Freeze.Script) == "" {
		return nil, fmt.Errorf("no script configured (set --script or the pipeline file's script key)")
	}
	if !fsutil.FileExists(script) {
		return nil, fmt.Errorf("script not found: %s", script)
	}

	root := f.cfg.Pipeline.Root
	outputsDir := f.cfg.ResolvePath(f.cfg.Freeze.OutputsDir)
	freezeRoot := f.cfg.ResolvePath(f.cfg.Freeze.FreezeRoot)

	start := f.now()
	tag := NewTag(start)
	dir := filepath.Join(freezeRoot, tag)

	if err := os.MkdirAll(freezeRoot, 0755); err != nil {
		return nil, fmt.Errorf("create freeze root %s: %w", freezeRoot, err)
	}
	// Frozen runs are immutable: a same-second re-run must not reuse the
	// previous run's directory.
	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("freeze %s already exists (wait a second and retry)", dir)
		}
		return nil, fmt.Errorf("create freeze directory %s: %w", dir, err)
	}

	_ = f.out.Write(output.Event{Type: "run.started", Op: "freeze", Tag: tag})

	frozenScript := filepath.Join(dir, filepath.Base(script))
	if _, err := fsutil.CopyFile(script, frozenScript); err != nil {
		return nil, fmt.Errorf("freeze script: %w", err)
	}
	_ = f.out.Write(output.Result{
		Op:      "freeze",
		Item:    filepath.Base(script),
		Status:  output.StatusOK,
		Path:    frozenScript,
		Message: "script frozen",
	})

	m := &Manifest{
		Tag:         tag,
		RunID:       f.newID(),
		FrozenAt:    start,
		Status:      StatusOK,
		Script:      script,
		FrozenCopy:  frozenScript,
		Interpreter: f.cfg.Freeze.Interpreter,
		GitCommit:   resolveCommit(ctx, root),
		ToolVersion: f.ToolVersion,
	}

	fail := func(err error) (*Manifest, error) {
		m.Status = StatusFailed
		m.Duration = time.Since(start).Round(time.Millisecond).String()
		if werr := m.Write(dir); werr != nil {
			err = fmt.Errorf("%w (additionally: %v)", err, werr)
		}
		_ = f.out.Write(output.Event{Type: "run.finished", Op: "freeze", Tag: tag, ExitCode: 1})
		return m, err
	}

	if !f.cfg.Freeze.SkipRun {
		exit, err := runScript(ctx, f.cfg.Freeze.Interpreter, frozenScript, root, filepath.Join(dir, RunLogName), f.Console)
		m.ScriptExit = exit
		if err != nil {
			return fail(err)
		}
		if exit != 0 {
			_ = f.out.Write(output.Result{
				Op:      "freeze",
				Item:    filepath.Base(script),
				Status:  output.StatusFail,
				Message: fmt.Sprintf("script exited %d (see %s)", exit, filepath.Join(dir, RunLogName)),
			})
			return fail(fmt.Errorf("script exited %d", exit))
		}
		_ = f.out.Write(output.Result{
			Op:      "freeze",
			Item:    filepath.Base(script),
			Status:  output.StatusOK,
			Message: "script ran",
		})
	}

	// Required outputs must all exist before any artifact copy happens.
	var missing []string
	for _, rel := range f.cfg.Freeze.Required {
		if !fsutil.FileExists(filepath.Join(outputsDir, rel)) {
			missing = append(missing, rel)
		}
	}
	if len(missing) > 0 {
		for _, rel := range missing {
			_ = f.out.Write(output.Result{
				Op:      "freeze",
				Item:    rel,
				Status:  output.StatusFail,
				Message: "required output missing from " + outputsDir,
			})
		}
		return fail(fmt.Errorf("missing required outputs in %s: %s", outputsDir, strings.Join(missing, ", ")))
	}

	artifacts, err := f.copyArtifacts(ctx, outputsDir, dir, tag)
	if err != nil {
		return fail(err)
	}
	m.Artifacts = artifacts
	m.Duration = time.Since(start).Round(time.Millisecond).String()

	if err := m.Write(dir); err != nil {
		return nil, err
	}
	_ = f.out.Write(output.Event{Type: "run.finished", Op: "freeze", Tag: tag, Files: len(artifacts)})
	return m, nil
}

type artifactJob struct {
	rel      string
	optional bool
}

// copyArtifacts copies required and optional artifacts into the freeze
// directory under version-tagged names. Copies are independent, so they run
// concurrently, bounded by the configured concurrency. Result order follows
// the configured artifact order regardless of completion order.
func (f *Freezer) copyArtifacts(ctx context.Context, outputsDir, dir, tag string) ([]Artifact, error) {
	var jobs []artifactJob
	for _, rel := range f.cfg.Freeze.Required {
		jobs = append(jobs, artifactJob{rel: rel})
	}
	for _, rel := range f.cfg.Freeze.Optional {
		jobs = append(jobs, artifactJob{rel: rel, optional: true})
	}

	records := make([]*Artifact, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Runtime.Concurrency)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			src := filepath.Join(outputsDir, job.rel)
			if !fsutil.FileExists(src) {
				if job.optional {
					_ = f.out.Write(output.Result{
						Op:      "freeze",
						Item:    job.rel,
						Status:  output.StatusSkipped,
						Message: "optional artifact not present (that is OK)",
					})
					return nil
				}
				return fmt.Errorf("required output vanished: %s", src)
			}

			dst := filepath.Join(dir, versionedName(job.rel, tag))
			n, err := fsutil.CopyFile(src, dst)
			if err != nil {
				return err
			}
			sum, err := fsutil.FileSHA256(dst)
			if err != nil {
				return err
			}

			records[i] = &Artifact{
				Name:     job.rel,
				Source:   src,
				Frozen:   dst,
				SHA256:   sum,
				Bytes:    n,
				Optional: job.optional,
			}
			_ = f.out.Write(output.Result{
				Op:     "freeze",
				Item:   job.rel,
				Status: output.StatusOK,
				Path:   dst,
				Bytes:  n,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var artifacts []Artifact
	for _, r := range records {
		if r != nil {
			artifacts = append(artifacts, *r)
		}
	}
	return artifacts, nil
}

// versionedName tags an artifact's base name with the freeze tag:
// "patient_stage_summary.csv" -> "patient_stage_summary_v20260830_142501.csv".
func versionedName(rel, tag string) string {
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_" + tag + ext
}
