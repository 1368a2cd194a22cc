package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernandezvara/collabkit/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(load loader) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := open(ctx, load)
		if err != nil {
			return err
		}
		defer rt.Close()
		log := rt.log.Logger

		if autoMigrate {
			if err := migrate(ctx, rt.service, log); err != nil {
				return err
			}
		}

		auth := httpapi.NewAuthenticator(rt.cfg.JWTSecret, rt.cfg.TokenTTL)
		server := http.Server{
			Addr:              rt.cfg.Addr(),
			Handler:           httpapi.NewRouter(httpapi.FromService(rt.service, auth, rt.cfg.AllowedOrigins)),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", server.Addr).Str("environment", rt.cfg.Environment).Msg("server started")
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				log.Info().Msg("server gracefully closed")
				err = nil
			}
			errCh <- err
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error on server shutdown")
			return err
		}
		return <-errCh
	}

	return cmd
}
