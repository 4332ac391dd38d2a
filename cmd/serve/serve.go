// Package serve runs the HTTP API.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"finsight/backend/cmd/common"
	"finsight/backend/cmd/root"
	"finsight/backend/internal/api"
	"finsight/backend/internal/logging"
)

// Cmd represents the serve command.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP API",
	Long:  `Starts the HTTP server exposing statement and receipt ingestion plus the analytic read endpoints.`,
	RunE:  serveFunc,
}

func serveFunc(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := common.Build(ctx, root.Cfg, root.Log)
	if err != nil {
		return err
	}
	defer app.Close()

	server := api.NewServer(app.Pipeline, app.DocAI, app.DocAI, root.Log)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", root.Cfg.Server.Port),
		Handler:           server.Router(root.Cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		root.Log.WithField("addr", httpServer.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	root.Log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		root.Log.WithError(err).Error("Forced shutdown")
		return err
	}

	root.Log.WithFields(logging.Field{Key: "addr", Value: httpServer.Addr}).Info("HTTP server stopped")
	return nil
}
