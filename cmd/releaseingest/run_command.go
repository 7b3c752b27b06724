package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run ingestion cycles until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.statusServer != nil {
				go func() {
					app.logger.Info("status listener started", "addr", app.statusServer.Addr)
					if err := app.statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						app.logger.Error("status listener failed", "error", err)
					}
				}()
			}

			app.logger.Info("ingestion started",
				"store", app.cfg.Storage.Driver,
				"artists", len(app.controller.Corpus().Entities),
				"queries", len(app.controller.Corpus().Queries),
			)
			err = app.controller.Run(ctx)
			if errors.Is(err, context.Canceled) {
				app.logger.Info("shutdown requested, stopping")
				return nil
			}
			return err
		},
	}
}

func newOnceCommand(flags *flagValues) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single ingestion cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.controller.RunCycle(ctx)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(stats); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the cycle statistics as JSON")
	return cmd
}
