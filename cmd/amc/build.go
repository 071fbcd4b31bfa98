package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sunholo/amc/internal/config"
	"github.com/sunholo/amc/internal/driver"
	"github.com/sunholo/amc/internal/stdlib"
)

// compile runs one end-to-end lowering of file and returns the AMM text.
// Shared by build and check; the only difference between those commands is
// what happens to the output.
func compile(file string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return "", err
	}
	if err := cfg.Apply(); err != nil {
		return "", err
	}
	if err := stdlib.Prepare(); err != nil {
		return "", err
	}

	d := driver.New()
	d.Verbose = flagVerbose
	out, err := d.Run(file)
	if flagVerbose {
		for _, line := range d.Trace() {
			fmt.Fprintf(os.Stderr, "%s %s\n", cyan("trace"), line)
		}
	}
	return out, err
}

func newBuildCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "build <file.amm>",
		Short: "Lower a source file and emit its AMM text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := compile(args[0])
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s wrote %s\n", green("ok"), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write AMM to this file instead of stdout")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.amm>",
		Short: "Typecheck and lower a source file without emitting output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := compile(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", green("ok"), args[0])
			return nil
		},
	}
}
