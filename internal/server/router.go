// Package server exposes the calculation engine over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/fakturownik/fakturownik/internal/config"
)

// NewRouter configures the Gin engine with all routes and middleware.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Logger(log))

	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")
	v1.POST("/items/compute", h.ComputeItem)
	v1.GET("/rates/:currency/:date", h.Rate)
	v1.POST("/periods", h.Periods)
	v1.POST("/jpk", h.JPK)

	return r
}

// Run serves r until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, r http.Handler, s config.ServerSettings, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      r,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
