package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orm-mirror/internal/ddl"
	"orm-mirror/internal/dialect"
)

var ddlCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print the CREATE TABLE statements of the synthesized models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		b, err := dialect.ParseEngine(mustFlagString(cmd, "backend", true))
		if err != nil {
			return err
		}

		src, err := loadSource(cmd)
		if err != nil {
			return err
		}

		reg, _, err := synthesize(log, src, mustFlagBool(cmd, "strict"))
		if err != nil {
			return err
		}

		stmts, err := ddl.Generate(reg.Models(), b, ddl.Options{IfNotExists: mustFlagBool(cmd, "if-not-exists")})
		if err != nil {
			return err
		}

		for _, s := range stmts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", s)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(ddlCmd)
	ddlCmd.Flags().String("backend", "postgres", "target backend: postgres, mysql, sqlite or mssql")
	ddlCmd.Flags().Bool("if-not-exists", false, "skip objects that already exist")
	ddlCmd.Flags().Bool("strict", false, "fail on any untranslatable field")
}
