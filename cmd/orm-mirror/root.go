package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"orm-mirror/internal/analyze"
	"orm-mirror/internal/mapping"
	"orm-mirror/internal/schema"
)

func mustFlagBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		fail("%s", err)
	}

	return val
}

func mustFlagString(cmd *cobra.Command, name string, required bool) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		fail("%s", err)
	}

	if required && val == "" {
		fail("required flag --%s missing", name)
	}

	return val
}

func mustFlagStrings(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		fail("%s", err)
	}

	return val
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel

	switch {
	case mustFlagBool(cmd, "verbose"):
		level = zerolog.DebugLevel
	case mustFlagBool(cmd, "silent"):
		level = zerolog.Disabled
	}

	out := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.TimeOnly}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// loadSource builds the source registry from --schema or --packages.
func loadSource(cmd *cobra.Command) (*schema.Registry, error) {
	file := mustFlagString(cmd, "schema", false)
	patterns := mustFlagStrings(cmd, "packages")

	switch {
	case file != "" && len(patterns) > 0:
		return nil, errors.New("--schema and --packages are mutually exclusive")
	case file != "":
		return loadSchemaFile(file)
	case len(patterns) > 0:
		return loadPackages(mustFlagString(cmd, "app", false), patterns)
	default:
		return nil, errors.New("one of --schema or --packages is required")
	}
}

func loadSchemaFile(path string) (*schema.Registry, error) {
	f, err := mapping.LoadFile(path)
	if err != nil {
		return nil, err
	}

	diags := mapping.Validate(f)
	if err := diags.Error(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	return f.Registry()
}

func loadPackages(app string, patterns []string) (*schema.Registry, error) {
	structs, err := analyze.NewAnalyzer().LoadPackages(patterns...)
	if err != nil {
		return nil, err
	}

	reg := schema.NewRegistry()
	if err := analyze.Register(reg, app, structs); err != nil {
		return nil, err
	}

	return reg, nil
}

var rootCmd = &cobra.Command{
	Use:           "orm-mirror",
	Short:         "Mirror synchronous ORM models into async models",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("schema", "", "YAML schema file with the source models")
	rootCmd.PersistentFlags().StringSlice("packages", nil, "Go package patterns with tagged model structs")
	rootCmd.PersistentFlags().String("app", "", "app label for models loaded from --packages (default: package name)")
	rootCmd.PersistentFlags().Bool("verbose", false, "turn on debug logging")
	rootCmd.PersistentFlags().Bool("silent", false, "turn off all logging")
}
