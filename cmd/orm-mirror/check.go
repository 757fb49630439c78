package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/mapping"
)

func printDiagnostics(w io.Writer, d diagnostic.Diagnostics) {
	for _, group := range [][]diagnostic.Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, x := range group {
			fmt.Fprintf(w, "%s: %s\n", x.Severity, x)
		}
	}
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the source models and run a strict synthesis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		if file := mustFlagString(cmd, "schema", false); file != "" {
			f, err := mapping.LoadFile(file)
			if err != nil {
				return err
			}

			if diags := mapping.Validate(f); !diags.IsValid() {
				printDiagnostics(cmd.OutOrStdout(), diags)
				return diags.Error()
			}
		}

		src, err := loadSource(cmd)
		if err != nil {
			return err
		}

		_, diags, err := synthesize(log, src, true)
		printDiagnostics(cmd.OutOrStdout(), diags)

		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "ok")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
