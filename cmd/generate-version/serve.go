package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/st-keller/versionwatch/logger"
	"github.com/st-keller/versionwatch/server"
)

func newServeCmd() *cobra.Command {
	cfg := server.DefaultConfig()
	logFormat := "console"

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a manifest directory over HTTP with caching disabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.ForFormat(cmd.ErrOrStderr(), logFormat)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, log).Start(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfg.Dir, "dir", "d", cfg.Dir, "directory to serve")
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	cmd.Flags().StringVar(&logFormat, "log-format", logFormat, "log output format: console or json")
	return cmd
}
