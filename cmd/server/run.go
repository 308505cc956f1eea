package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/config"
)

func run(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) error {
	gin.SetMode(gin.ReleaseMode)

	handler, cleanup, err := newApp(ctx, cfg, logger)
	defer func() {
		if cerr := cleanup(); cerr != nil {
			logger.Warn("cleanup failed", zap.Error(cerr))
		}
	}()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}
	logger.Info("server started",
		zap.String("addr", ln.Addr().String()),
		zap.String("language", cfg.Language.String()),
		zap.Bool("db", cfg.DSN != ""),
	)
	return serve(ctx, &http.Server{Handler: handler}, ln, cfg, logger)
}

// serve runs srv on ln until ctx is done, then drains in-flight requests
// for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, cfg config.ServerConfig, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
