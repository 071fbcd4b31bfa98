package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sunholo/amc/internal/errors"
)

var (
	// Version info - set by ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"

	// Color output
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

var (
	flagVerbose bool
	flagJSON    bool
)

func main() {
	root := &cobra.Command{
		Use:           "amc",
		Short:         "amc - the AMM lowering compiler",
		Long:          "amc lowers event-driven source modules into the flat, typed AMM intermediate representation.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print a per-phase trace to stderr")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "print diagnostics as JSON")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newREPLCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

// reportError prints a diagnostic the way the toolchain always does:
// colored single-line text by default, machine-readable JSON under --json.
func reportError(err error) {
	if diag, ok := err.(*errors.Diagnostic); ok {
		if flagJSON {
			if out, jerr := diag.ToJSON(); jerr == nil {
				fmt.Fprintln(os.Stderr, out)
				return
			}
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", red(diag.Code), err.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("amc %s\n", bold(Version))
			if Commit != "unknown" {
				fmt.Printf("Commit: %s\n", Commit)
			}
			if BuildTime != "unknown" {
				fmt.Printf("Built:  %s\n", BuildTime)
			}
		},
	}
}
