package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sunholo/amc/internal/driver"
	"github.com/sunholo/amc/internal/stdlib"
)

// replSession collects declarations (types, events, functions) entered so
// far; each evaluated line is lowered as the body of a fresh `on start`
// handler against that accumulated prelude.
type replSession struct {
	decls []string
}

// declKeywords open a top-level declaration that persists across REPL
// inputs rather than being evaluated inside the synthetic handler.
var declKeywords = []string{"type ", "interface ", "event ", "fn ", "pure ", "const ", "operator ", "import ", "from "}

func (s *replSession) isDecl(line string) bool {
	for _, kw := range declKeywords {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return false
}

// eval writes the session's virtual root file and runs a fresh driver over
// it, returning the AMM text for the handler wrapping input.
func (s *replSession) eval(input string) (string, error) {
	var b strings.Builder
	for _, d := range s.decls {
		b.WriteString(d)
		b.WriteString("\n")
	}
	if input != "" {
		fmt.Fprintf(&b, "on start fn () {\n%s\n}\n", input)
	}

	dir, err := os.MkdirTemp("", "amc-repl-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)
	file := filepath.Join(dir, "repl.amm")
	if err := os.WriteFile(file, []byte(b.String()), 0o644); err != nil {
		return "", err
	}

	d := driver.New()
	return d.Run(file)
}

func newREPLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively lower statements and inspect their AMM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := stdlib.Prepare(); err != nil {
				return err
			}

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			historyPath := filepath.Join(os.TempDir(), ".amc_repl_history")
			if f, err := os.Open(historyPath); err == nil {
				line.ReadHistory(f)
				f.Close()
			}
			defer func() {
				if f, err := os.Create(historyPath); err == nil {
					line.WriteHistory(f)
					f.Close()
				}
			}()

			fmt.Printf("%s %s - enter statements to see their AMM, :quit to exit\n", bold("amc repl"), Version)
			session := &replSession{}

			for {
				input, err := line.Prompt(cyan("amm> "))
				if err != nil {
					fmt.Println()
					return nil
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				if input == ":quit" || input == ":q" {
					return nil
				}
				line.AppendHistory(input)

				if session.isDecl(input) {
					session.decls = append(session.decls, input)
					if _, err := session.eval(""); err != nil {
						// Declaration failed to bind; drop it again.
						session.decls = session.decls[:len(session.decls)-1]
						reportError(err)
						continue
					}
					fmt.Printf("%s\n", yellow("declared"))
					continue
				}

				out, err := session.eval(input)
				if err != nil {
					reportError(err)
					continue
				}
				fmt.Print(out)
			}
		},
	}
}
