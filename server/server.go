// Package server assembles the gin engine and runs the HTTP listener.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"filedeck/controller"
	"filedeck/logging"
	"filedeck/metrics"
)

const shutdownGrace = 5 * time.Second

// New builds the engine: request logging and metrics middleware, panic
// recovery, and every route the controller exposes.
func New(ctl *controller.Controller) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(logging.Middleware(), gin.Recovery(), metrics.Middleware())
	controller.SetupRoutes(r, ctl)
	return r
}

// Start serves on the port until ctx is cancelled, then drains in-flight
// requests for a short grace period before returning.
func Start(ctx context.Context, port int, ctl *controller.Controller) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: New(ctl),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.S().Infow("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
