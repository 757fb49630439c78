package main

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"orm-mirror/internal/lifecycle"
	"orm-mirror/internal/model"
)

func newServeMux(c *lifecycle.Controller) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		for _, alias := range c.Settings().Aliases() {
			e, err := c.Engine(alias)
			if err == nil {
				err = e.Ping(r.Context())
			}

			if err != nil {
				http.Error(w, alias+": "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		models := c.Registry().Models()

		out := make([]model.Description, 0, len(models))
		for _, m := range models {
			out = append(out, m.Describe())
		}

		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	return mux
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the datasources open and serve health, models and metrics until signalled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		ctx := cmd.Context()

		c, err := startController(ctx, cmd, log)
		if err != nil {
			return err
		}

		// exits the process once the engines are closed
		stop := c.HandleSignals(ctx)
		defer stop()

		addr := mustFlagString(cmd, "addr", true)
		srv := &http.Server{
			Addr:              addr,
			Handler:           newServeMux(c),
			ReadHeaderTimeout: 5 * time.Second,
		}

		log.Info().Str("addr", addr).Msg("listening")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			_ = c.Close(ctx)
			return err
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "orm-mirror.yaml", "settings file with the datasources")
	serveCmd.Flags().String("addr", "127.0.0.1:9090", "listen address")
	serveCmd.Flags().Bool("strict", false, "fail on any untranslatable field")
}
