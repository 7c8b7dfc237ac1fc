package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"runledger/internal/combine"
	"runledger/internal/config"
	"runledger/internal/flags"
	"runledger/internal/output"
)

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Concatenate matching log files into one combined report",
	Long: `Concatenate a directory's log files into one combined report.

Files are matched by name against a glob pattern (default "*.out.txt"),
sorted by name, and written to the combined report with a boundary marker
naming each source file:

  ========================================
  ==> stage2_make_master.out.txt <==
  ========================================

The report is replaced atomically, so a previous good report survives an
interrupted run. The report file itself is excluded from the input set even
when it lives inside the scanned directory.

Exit codes:
	0 = report written
	1 = combine failed (logs directory missing, no files match)
	3 = fatal error (bad flags or pipeline file)

Examples:
  # Defaults: ./logs/*.out.txt -> ./logs/combined.out.txt
  runledger combine

  # Explicit paths
  runledger combine --logs-dir _outputs/logs --combined report.out.txt

  # Re-combine whenever a log changes (stop with Ctrl-C)
  runledger combine --watch

  # Tolerate an empty logs directory
  runledger combine --allow-empty
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

		c := combine.New(cfg, outMgr)

		if cfg.Combine.Watch {
			os.Exit(runCombineWatch(c, outMgr))
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Runtime.Timeout)
		defer cancel()

		summary, err := c.Run(ctx)
		code := 0
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		} else {
			printCombineSummary(summary)
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

func runCombineWatch(c *combine.Combiner, outMgr *output.Manager) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := c.Watch(ctx, func(s *combine.Summary, passErr error) {
		if passErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", passErr)
			return
		}
		printCombineSummary(s)
	})
	stop()

	code := 0
	// Interrupt is the normal way to leave watch mode.
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}
	if err := outMgr.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 1
	}
	return code
}

func printCombineSummary(s *combine.Summary) {
	if s == nil || cfg.Output.NoConsole || cfg.Output.ConsoleFormat != "text" {
		return
	}
	fmt.Printf("Combined %d file(s), %d bytes -> %s\n", s.Files, s.Bytes, s.ReportAt)
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringVar(&cfg.Combine.LogsDir, flags.FlagLogsDir, cfg.Combine.LogsDir, "Directory scanned for log files")
	combineCmd.Flags().StringVar(&cfg.Combine.Pattern, flags.FlagPattern, cfg.Combine.Pattern, "Glob matched against file names in the logs directory")
	combineCmd.Flags().StringVar(&cfg.Combine.Combined, flags.FlagCombined, cfg.Combine.Combined, "Path the combined report is written to")
	combineCmd.Flags().BoolVar(&cfg.Combine.AllowEmpty, flags.FlagAllowEmpty, false, "Write an empty report instead of failing when no files match")
	combineCmd.Flags().BoolVar(&cfg.Combine.Watch, flags.FlagWatch, false, "Keep running and re-combine whenever a matching file changes")

	addOutputFlags(combineCmd)
}
