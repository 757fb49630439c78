package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/metrics"
	"orm-mirror/internal/model"
	"orm-mirror/internal/schema"
	"orm-mirror/internal/synth"
)

// inspected is one synthesized model in json and yaml output.
type inspected struct {
	Source      string            `json:"source" yaml:"source"`
	Fingerprint string            `json:"fingerprint" yaml:"fingerprint"`
	Model       model.Description `json:"model" yaml:"model"`
}

func synthesize(log zerolog.Logger, src *schema.Registry, strict bool) (*synth.Registry, diagnostic.Diagnostics, error) {
	s := synth.New(
		synth.WithStrict(strict),
		synth.WithLogger(log),
		synth.WithMetrics(metrics.Default()),
	)

	return s.Run(src)
}

func writeInspection(w io.Writer, reg *synth.Registry, format string) error {
	out := make([]inspected, 0, reg.Len())
	for _, p := range reg.Pairs() {
		out = append(out, inspected{
			Source:      p.Source.Ref(),
			Fingerprint: fmt.Sprintf("%016x", p.Async.Fingerprint()),
			Model:       p.Async.Describe(),
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(out); err != nil {
			return err
		}

		return enc.Close()
	case "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

		for _, m := range out {
			fmt.Fprintf(tw, "%s -> %s\ttable=%s\t%s\n", m.Source, m.Model.Name, m.Model.Meta.Table, m.Fingerprint)

			for _, f := range m.Model.Fields {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, f.Type, describeFlags(f))
			}
		}

		return tw.Flush()
	default:
		return errors.Newf("unknown format %q", format)
	}
}

func describeFlags(f model.FieldDescription) string {
	var s string

	add := func(ok bool, v string) {
		if !ok {
			return
		}

		if s != "" {
			s += " "
		}

		s += v
	}

	add(f.PK, "pk")
	add(f.Null, "null")
	add(f.Unique, "unique")
	add(f.Index, "index")
	add(f.Column != "" && f.Column != f.Name, "column="+f.Column)
	add(f.Target != "", "to="+f.Target)
	add(f.OnDelete != "", "on_delete="+f.OnDelete)
	add(f.Through != "", "through="+f.Through)

	return s
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the synthesized models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)

		src, err := loadSource(cmd)
		if err != nil {
			return err
		}

		reg, diags, err := synthesize(log, src, mustFlagBool(cmd, "strict"))
		if err != nil {
			return err
		}

		for _, w := range diags.Warnings {
			log.Warn().Msg(w.String())
		}

		return writeInspection(cmd.OutOrStdout(), reg, mustFlagString(cmd, "format", true))
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().String("format", "text", "output format: text, json or yaml")
	inspectCmd.Flags().Bool("strict", false, "fail on any untranslatable field")
}
