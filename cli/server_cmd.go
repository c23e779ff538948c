package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/simmons/punch/api"
	"github.com/simmons/punch/telemetry"
)

const shutdownTimeout = 30 * time.Second

func newServerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}
	cmd.Flags().StringVarP(&app.Config.Bind, "bind", "b", app.Config.Bind, "Address to listen on")

	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains active
// requests for up to shutdownTimeout.
func serve(ctx context.Context, app *App) error {
	shutdownTracing, err := telemetry.Setup(ctx, "punch", app.Config.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("[Server] Tracing shutdown: %v", err)
		}
	}()

	store, svc, err := app.open()
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := svc.DefaultProject(context.Background()); err != nil {
		return notInitialized(err)
	}

	handler := api.NewHandler(svc)
	handler.Now = app.now

	server := &http.Server{
		Addr:         app.Config.Bind,
		Handler:      api.NewRouter(handler, app.Config.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on http://%s/api", app.Config.Bind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("[Server] Stopped")
	return nil
}
