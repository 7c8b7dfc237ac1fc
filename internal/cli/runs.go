package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"runledger/internal/config"
	"runledger/internal/flags"
	"runledger/internal/freeze"
)

var runsListQuiet bool
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse frozen runs",
	Long: `Browse frozen runs via their manifests.

Each freeze writes a manifest.yaml into its version-tagged directory; these
commands read those manifests. Tag directories without a manifest are
aborted freezes and are ignored.

Examples:
  # List frozen runs, newest first
  runledger runs list

  # Show one run's manifest
  runledger runs show v20260830_142501
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List frozen runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadAndValidate(cmd); err != nil {
			return err
		}

		runs, err := freeze.ListRuns(cfg.ResolvePath(cfg.Freeze.FreezeRoot))
		if err != nil {
			return err
		}
		if len(runs) == 0 && !runsListQuiet {
			fmt.Fprintln(cmd.OutOrStdout(), "No frozen runs.")
			return nil
		}

		for _, m := range runs {
			if runsListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), m.Tag)
				continue
			}
			printRunLine(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [tag]",
	Short: "Show one frozen run's manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadAndValidate(cmd); err != nil {
			return err
		}

		m, err := freeze.FindRun(cfg.ResolvePath(cfg.Freeze.FreezeRoot), args[0])
		if err != nil {
			return err
		}
		printRun(cmd.OutOrStdout(), m)
		return nil
	},
}

func loadAndValidate(cmd *cobra.Command) error {
	if err := config.LoadFile(cfg, changedFlags(cmd)); err != nil {
		return err
	}
	return cfg.Validate()
}

func printRunLine(w io.Writer, m *freeze.Manifest) {
	status := color.GreenString(m.Status)
	if m.Status != freeze.StatusOK {
		status = color.RedString(m.Status)
	}
	fmt.Fprintf(w, "%s  %s  %-6s  %s  (%d artifact(s))\n",
		m.Tag, m.FrozenAt.Format("2006-01-02 15:04:05"), status, m.Script, len(m.Artifacts))
}

func printRun(w io.Writer, m *freeze.Manifest) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RUN: %s\n", m.Tag)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Run ID:      %s\n", m.RunID)
	fmt.Fprintf(w, "Frozen at:   %s\n", m.FrozenAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Status:      %s\n", m.Status)
	fmt.Fprintf(w, "Script:      %s\n", m.Script)
	fmt.Fprintf(w, "Frozen copy: %s\n", m.FrozenCopy)
	if m.Interpreter != "" {
		fmt.Fprintf(w, "Interpreter: %s\n", m.Interpreter)
	}
	fmt.Fprintf(w, "Script exit: %d\n", m.ScriptExit)
	if m.Duration != "" {
		fmt.Fprintf(w, "Duration:    %s\n", m.Duration)
	}
	if m.GitCommit != "" {
		fmt.Fprintf(w, "Git commit:  %s\n", m.GitCommit)
	}
	if m.ToolVersion != "" {
		fmt.Fprintf(w, "Frozen by:   runledger %s\n", m.ToolVersion)
	}

	if len(m.Artifacts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Artifacts:")
		for _, a := range m.Artifacts {
			kind := "required"
			if a.Optional {
				kind = "optional"
			}
			fmt.Fprintf(w, "  %s (%s)\n", a.Name, kind)
			fmt.Fprintf(w, "    Frozen: %s\n", a.Frozen)
			fmt.Fprintf(w, "    SHA256: %s\n", a.SHA256)
			fmt.Fprintf(w, "    Bytes:  %d\n", a.Bytes)
		}
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.PersistentFlags().StringVar(&cfg.Freeze.FreezeRoot, flags.FlagFreezeRoot, cfg.Freeze.FreezeRoot, "Directory freeze directories are created under")
	runsCmd.AddCommand(runsListCmd)
	runsListCmd.Flags().BoolVarP(&runsListQuiet, flags.FlagQuiet, "q", false, "Only print run tags")
	runsCmd.AddCommand(runsShowCmd)
}
