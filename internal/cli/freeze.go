package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"runledger/internal/config"
	"runledger/internal/flags"
	"runledger/internal/freeze"
)

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Freeze a processing script and its outputs under a version tag",
	Long: `Freeze a processing run so nothing gets overwritten by later runs.

The freeze is strictly sequential:

  1. Create <freeze-root>/<tag>/ where <tag> is vYYYYMMDD_HHMMSS.
     An existing tag directory fails the freeze: frozen runs are immutable.
  2. Copy the processing script into the tag directory (mode preserved).
  3. Run the frozen copy (not the original) with the configured
     interpreter; its combined output streams to the console and to
     <tag>/run.log.
  4. Copy each required output to <tag>/<name>_<tag>.<ext>. A missing
     required output fails the freeze.
  5. Copy optional artifacts the same way, best-effort: missing ones are
     skipped with a warning.
  6. Write <tag>/manifest.yaml recording the tag, run ID, timestamp,
     paths, per-artifact checksums, the pipeline root's git commit (when
     available), and the script's exit status. The manifest is written
     last, so its presence marks a complete freeze.

A failing script still leaves the tag directory, run.log, and a
status "failed" manifest in place for inspection.

Exit codes:
	0 = freeze complete
	1 = freeze failed (script missing or exited non-zero, required output missing)
	3 = fatal error (bad flags or pipeline file)

Examples:
  # Freeze and run a script, defaults for everything else
  runledger freeze --script stage2_make_master.py

  # Everything from the pipeline file
  runledger freeze

  # Snapshot existing outputs without re-running the script
  runledger freeze --skip-run

  # Machine-readable progress
  runledger freeze --no-console --out freeze.ndjson
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.LoadFile(cfg, changedFlags(cmd)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		outMgr, err := setupOutputManager(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
		defer cancel()

		f := freeze.New(cfg, outMgr)
		f.ToolVersion = buildVersion
		// The script's output belongs on the console only when the console
		// is a plain text stream; in ndjson or suppressed modes it still
		// lands in run.log.
		if !cfg.Output.NoConsole && cfg.Output.ConsoleFormat == "text" {
			f.Console = os.Stdout
		}

		manifest, err := f.Run(ctx)
		code := 0
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		} else if !cfg.Output.NoConsole && cfg.Output.ConsoleFormat == "text" {
			fmt.Printf("Froze run %s (%d artifact(s)) under %s\n",
				manifest.Tag, len(manifest.Artifacts), cfg.ResolvePath(cfg.Freeze.FreezeRoot))
		}
		if err := outMgr.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(freezeCmd)

	freezeCmd.Flags().StringVar(&cfg.Freeze.Script, flags.FlagScript, "", "Processing script to freeze and run")
	freezeCmd.Flags().StringVar(&cfg.Freeze.Interpreter, flags.FlagInterpreter, cfg.Freeze.Interpreter, "Command the frozen script is executed with")
	freezeCmd.Flags().StringVar(&cfg.Freeze.OutputsDir, flags.FlagOutputsDir, cfg.Freeze.OutputsDir, "Directory the script writes its outputs to")
	freezeCmd.Flags().StringSliceVar(&cfg.Freeze.Required, flags.FlagRequired, cfg.Freeze.Required, "Required output files, relative to --outputs-dir")
	freezeCmd.Flags().StringSliceVar(&cfg.Freeze.Optional, flags.FlagOptional, cfg.Freeze.Optional, "Optional artifacts copied best-effort, relative to --outputs-dir")
	freezeCmd.Flags().StringVar(&cfg.Freeze.FreezeRoot, flags.FlagFreezeRoot, cfg.Freeze.FreezeRoot, "Directory freeze directories are created under")
	freezeCmd.Flags().BoolVar(&cfg.Freeze.SkipRun, flags.FlagSkipRun, false, "Freeze the script and existing outputs without running the script")
	freezeCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Parallel artifact copies")

	addOutputFlags(freezeCmd)
}
