package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/scriptbridge"
	"github.com/aretw0/scriptbridge/internal/cli"
	httpAdapter "github.com/aretw0/scriptbridge/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP event server",
	Long:  `Loads the scripts once and accepts document events over HTTP (POST /events).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		env, err := cli.Setup(ctx, sharedOptions(cmd))
		if err != nil {
			return err
		}
		defer env.Host.Close()

		addr := env.Config.Listen
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			addr = listen
		}

		handler := httpAdapter.NewHandler(env.Host,
			httpAdapter.WithGatherer(env.Registry),
			httpAdapter.WithLogger(env.Logger),
			httpAdapter.WithVersion(scriptbridge.Version),
		)
		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			env.Logger.Info("starting server", "addr", addr, "handlers", env.Host.Order())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			env.Logger.Info("shutting down", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				env.Logger.Error("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
}
