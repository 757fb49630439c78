package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"orm-mirror/internal/config"
	"orm-mirror/internal/ddl"
	"orm-mirror/internal/lifecycle"
	"orm-mirror/internal/metrics"
)

// startController loads the settings and source models and brings a
// controller to Ready.
func startController(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*lifecycle.Controller, error) {
	settings, err := config.Load(mustFlagString(cmd, "config", true))
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("strict") {
		settings.Strict = mustFlagBool(cmd, "strict")
	}

	if !mustFlagBool(cmd, "verbose") && !mustFlagBool(cmd, "silent") {
		log = log.Level(settings.Level())
	}

	src, err := loadSource(cmd)
	if err != nil {
		return nil, err
	}

	c := lifecycle.New(settings, src,
		lifecycle.WithLogger(log),
		lifecycle.WithMetrics(metrics.Default()),
	)

	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [alias...]",
	Short: "Create the tables of the synthesized models on the configured datasources",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		ctx := cmd.Context()

		c, err := startController(ctx, cmd, log)
		if err != nil {
			return err
		}

		stop := c.HandleSignals(ctx)
		defer stop()

		defer func() {
			cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			if err := c.Close(cctx); err != nil {
				log.Error().Err(err).Msg("close")
			}
		}()

		aliases := args
		if len(aliases) == 0 {
			aliases = c.Settings().Aliases()
		}

		dryRun := mustFlagBool(cmd, "dry-run")
		models := c.Registry().Models()

		for _, alias := range aliases {
			e, err := c.Engine(alias)
			if err != nil {
				return err
			}

			stmts, err := ddl.Generate(models, e.Backend(), ddl.Options{IfNotExists: true})
			if err != nil {
				return err
			}

			for _, s := range stmts {
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n%s;\n", alias, s)
					continue
				}

				log.Debug().Str("alias", alias).Msg(s)

				if _, err := e.Exec(ctx, s); err != nil {
					return err
				}
			}

			log.Info().Str("alias", alias).Int("statements", len(stmts)).Bool("dry_run", dryRun).Msg("migrated")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("config", "orm-mirror.yaml", "settings file with the datasources")
	migrateCmd.Flags().Bool("dry-run", false, "print the statements instead of running them")
	migrateCmd.Flags().Bool("strict", false, "fail on any untranslatable field")
}
