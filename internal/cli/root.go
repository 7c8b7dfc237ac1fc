package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"runledger/internal/config"
	"runledger/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "runledger",
	Short: "Combine pipeline logs and freeze processing runs with provenance manifests",
	Long: `Runledger is the operator tool for a file-based data-processing pipeline.

It does two things:

  combine   Concatenate a directory's log files into one combined report
            with file-boundary markers.
  freeze    Snapshot a processing script under an immutable version tag,
            run the frozen copy, copy its output files to version-tagged
            names, and write a provenance manifest.

Frozen runs can be browsed afterwards with "runledger runs".

Examples:
	# Show available commands and global flags
	runledger --help

	# Combine ./logs/*.out.txt into ./logs/combined.out.txt
	runledger combine

	# Freeze and run a processing script
	runledger freeze --script stage2_make_master.py

	# List frozen runs
	runledger runs list

Configuration:
	Paths and artifact lists can be declared once in a pipeline file
	(runledger.yaml in the pipeline root, or --config). Command-line flags
	override pipeline file values.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.Pipeline.Root, flags.FlagRoot, ".", "Pipeline working directory all relative paths resolve against")
	rootCmd.PersistentFlags().StringVar(&cfg.Pipeline.ConfigFile, flags.FlagConfigFile, "", "Pipeline file path (default: <root>/"+config.DefaultFileName+" when present)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose output (full paths, git resolution details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// changedFlags reports which flag names the user set on cmd, including
// inherited flags. The pipeline file defers to these.
func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := make(map[string]bool)
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	return changed
}
