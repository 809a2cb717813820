package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewServer, NewHTTPServer),
	fx.Invoke(func(*http.Server) {}),
)

// NewHTTPServer binds the API to APP_PORT for the lifetime of the fx app.
func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, log logger.Logger, handler *Server) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.API.WriteTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			log.Info("Starting server", "port", cfg.App.Port)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
