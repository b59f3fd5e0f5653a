package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrew2loo/RethinkBI/internal/api"
	"github.com/andrew2loo/RethinkBI/internal/debug"
	"github.com/andrew2loo/RethinkBI/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(app *App) *cobra.Command {
	var listen, token string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operations over HTTP",
		Long:  "Expose every operation as POST /api/<operation> until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Container(cmd.Context())
			if err != nil {
				return err
			}

			cfg := c.Config().Server
			if listen != "" {
				cfg.Listen = listen
			}
			if token != "" {
				cfg.Token = token
			}

			srv, err := api.NewServer(cfg, c.Services())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token required on every request (overrides server.token)")

	return cmd
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ui.PrintSuccess("Listening on http://%s", srv.Addr)
	debug.Info("server started", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	debug.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
