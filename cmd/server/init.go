package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/adapters/audit/file"
	remoteaudit "github.com/vshulcz/enginestats/internal/adapters/audit/remote"
	"github.com/vshulcz/enginestats/internal/adapters/http/ginserver"
	"github.com/vshulcz/enginestats/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/enginestats/internal/adapters/registry"
	"github.com/vshulcz/enginestats/internal/adapters/store/memory"
	"github.com/vshulcz/enginestats/internal/adapters/store/postgres"
	"github.com/vshulcz/enginestats/internal/adapters/store/prom"
	"github.com/vshulcz/enginestats/internal/config"
	"github.com/vshulcz/enginestats/internal/i18n"
	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/ports"
	"github.com/vshulcz/enginestats/internal/services/audit"
	"github.com/vshulcz/enginestats/internal/services/recorder"
	"github.com/vshulcz/enginestats/internal/services/schema"
	"github.com/vshulcz/enginestats/internal/services/stats"
)

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i]())
	}
	return errors.Join(errs...)
}

// buildStore connects to Postgres when a DSN is set and falls back to memory on failure.
func buildStore(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (ports.MetricStore, func() error) {
	if cfg.DSN == "" {
		logger.Info("using in-memory store")
		return memory.New(), func() error { return nil }
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err == nil {
		op := func() error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			return postgres.Migrate(db)
		}
		notify := func(attempt int, err error, wait time.Duration) {
			logger.Warn("postgres not ready, retrying",
				zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		}
		if err = misc.RetryNotify(ctx, misc.DefaultBackoff, postgres.IsRetryable, op, notify); err == nil {
			logger.Info("db connected & migrated")
			return postgres.New(db), db.Close
		}
		_ = db.Close()
	}
	logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	return memory.New(), func() error { return nil }
}

func loadRegistry(cfg config.ServerConfig) (*registry.Static, error) {
	if cfg.EnginesFile == "" {
		return registry.Default(), nil
	}
	return registry.Load(cfg.EnginesFile)
}

// buildAudit returns nil when no audit sink is configured.
func buildAudit(cfg config.ServerConfig, logger *zap.Logger) (audit.Publisher, func() error, error) {
	subject := audit.NewSubject()
	closeFn := func() error { return nil }
	if cfg.AuditFile != "" {
		w := file.New(cfg.AuditFile)
		subject.Attach(w)
		closeFn = w.Close
	}
	if cfg.AuditURL != "" {
		c, err := remoteaudit.New(cfg.AuditURL, cfg.Key, nil)
		if err != nil {
			return nil, closeFn, err
		}
		subject.Attach(c)
	}
	if subject.Len() == 0 {
		return nil, closeFn, nil
	}
	subject.SetErrorHandler(func(err error) {
		logger.Warn("audit delivery failed", zap.Error(err))
	})
	return subject, closeFn, nil
}

// newApp assembles the HTTP handler and returns the cleanup of everything it opened.
func newApp(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (http.Handler, func() error, error) {
	var cleanup closers

	store, closeStore := buildStore(ctx, cfg, logger)
	cleanup = append(cleanup, closeStore)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mirrored := prom.New(store, promReg, logger)

	engines, err := loadRegistry(cfg)
	if err != nil {
		return nil, cleanup.Close, fmt.Errorf("load engines: %w", err)
	}
	if err := schema.Initialize(ctx, mirrored, engines.Engines()); err != nil {
		return nil, cleanup.Close, fmt.Errorf("initialize metrics: %w", err)
	}
	logger.Info("engines registered", zap.Strings("engines", engines.Names()))

	if mem, ok := store.(*memory.Store); ok && cfg.File != "" {
		cleanup = append(cleanup, startSnapshots(ctx, mem, cfg, logger))
	}

	cat, err := i18n.New(cfg.Language)
	if err != nil {
		return nil, cleanup.Close, fmt.Errorf("build catalog: %w", err)
	}

	pub, closeAudit, err := buildAudit(cfg, logger)
	cleanup = append(cleanup, closeAudit)
	if err != nil {
		return nil, cleanup.Close, fmt.Errorf("audit: %w", err)
	}

	h := ginserver.NewHandler(
		mirrored,
		stats.New(mirrored, engines, logger),
		recorder.New(mirrored, pub, logger),
		cat,
	)
	r := ginserver.NewRouter(h,
		promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		middlewares.ZapLogger(logger),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(cfg.Key),
	)
	return r, cleanup.Close, nil
}
