package main

import (
	"github.com/spf13/cobra"

	"orm-mirror/internal/mapping"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the source models as a YAML schema file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		src, err := loadSource(cmd)
		if err != nil {
			return err
		}

		f := mapping.FromRegistry(src)

		out := mustFlagString(cmd, "out", false)
		if out == "" {
			data, err := mapping.Marshal(f)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		}

		if err := mapping.WriteFile(f, out); err != nil {
			return err
		}

		log.Info().Str("path", out).Int("models", len(src.Models())).Msg("schema written")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("out", "", "output file (default: stdout)")
}
