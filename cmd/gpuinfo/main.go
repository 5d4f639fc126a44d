package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-gpuinfo/internal/config"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/logging"
	"github.com/go-tangra/go-tangra-gpuinfo/internal/report"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "gpuinfo",
	Short: "Print a diagnostic report of the graphics adapters and display outputs",
	Long: `gpuinfo enumerates the graphics adapters and attached display outputs on a
Windows host and prints a human-readable diagnostic report: adapter identity,
vendor, memory, driver version and date, and per-output geometry, rotation,
refresh rate, color space, SDR white level, and DPI scaling.

It runs once, prints to the console, and exits. There are no flags;
GPUINFO_COLOR, GPUINFO_PAUSE, and GPUINFO_LOG_LEVEL tune the presentation.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gpuinfo %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	color.NoColor = !cfg.ColorEnabled(isTerminal(os.Stdout))
	pause := cfg.PauseEnabled(isTerminal(os.Stdin), isTerminal(os.Stdout))

	return report.Run(report.Options{Pause: pause}, log)
}
