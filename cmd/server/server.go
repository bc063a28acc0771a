package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/phrazzld/jobd/internal/redact"
)

// startHTTPServer serves router on the configured port until ctx is
// cancelled, the server fails, or SIGINT/SIGTERM arrives, then shuts the
// server down within the configured timeout and runs cleanup.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", app.config.Server.Port))
	if err != nil {
		app.cleanup()
		return errors.Wrapf(err, "listen on port %d", app.config.Server.Port)
	}
	return app.serve(ctx, listener, router)
}

// serve runs the HTTP server on listener with graceful shutdown.
func (app *application) serve(ctx context.Context, listener net.Listener, router http.Handler) error {
	server := &http.Server{
		Handler: router,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	go func() {
		app.logger.Info("Starting server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Server failed", redact.ErrorAttr(err))
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("Shutting down server...")
	case <-serverCtx.Done():
		app.logger.Info("Server context canceled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer shutdownCancel()

	shutdownErr := server.Shutdown(shutdownCtx)

	// In-flight HTTP requests are drained before the workers stop.
	app.cleanup()

	if shutdownErr != nil {
		app.logger.Error("Server shutdown failed", redact.ErrorAttr(shutdownErr))
		return errors.Wrap(shutdownErr, "server shutdown failed")
	}

	app.logger.Info("Server shutdown completed")
	return nil
}
