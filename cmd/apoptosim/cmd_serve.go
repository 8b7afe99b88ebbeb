package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/njchilds90/apoptosim/config"
	"github.com/njchilds90/apoptosim/server"
	"github.com/njchilds90/apoptosim/store"
	"github.com/njchilds90/apoptosim/telemetry"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulators over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	serveAddr  string
	serveStore string
	serveWatch bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "Expose the ensemble results in this database under /v1/results")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the log level when the config file changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	scfg := cfg.Server
	if serveAddr != "" {
		scfg.Addr = serveAddr
	}
	opts := []server.Option{server.WithLogger(slog.Default())}

	if serveStore != "" {
		stcfg := cfg.Store
		stcfg.Path = serveStore
		stcfg.Logger = slog.Default()
		st, err := store.Open(stcfg)
		if err != nil {
			return err
		}
		defer st.Close()
		opts = append(opts, server.WithStore(st))
	}

	if serveWatch && configPath != "" {
		w, err := config.NewWatcher(configPath, slog.Default())
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(cmd.Context(), func(next *config.Config) {
			level, err := telemetry.ParseLevel(next.Logging.Level)
			if err != nil {
				return
			}
			logLevelVar.Set(level)
		})
	}

	return server.New(scfg, opts...).ListenAndServe(cmd.Context())
}
