package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	persistfile "github.com/vshulcz/enginestats/internal/adapters/persistence/file"
	"github.com/vshulcz/enginestats/internal/adapters/store/memory"
	"github.com/vshulcz/enginestats/internal/config"
)

// startSnapshots restores the memory store when asked, saves it every
// cfg.StoreInterval and returns a func that stops the loop and saves once more.
func startSnapshots(ctx context.Context, st *memory.Store, cfg config.ServerConfig, logger *zap.Logger) func() error {
	p := persistfile.New(cfg.File)
	if cfg.Restore {
		if skipped, err := p.Restore(ctx, st); err != nil {
			logger.Warn("restore failed", zap.String("file", cfg.File), zap.Error(err))
		} else {
			logger.Info("restore ok", zap.String("file", cfg.File), zap.Int("skipped", skipped))
		}
	}

	save := func(ctx context.Context) error {
		snap, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		return p.Save(ctx, snap)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if cfg.StoreInterval <= 0 {
			<-stop
			return
		}
		ticker := time.NewTicker(cfg.StoreInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := save(context.Background()); err != nil {
					logger.Warn("periodic save failed", zap.Error(err))
				}
			}
		}
	}()

	return func() error {
		close(stop)
		<-done
		return save(context.Background())
	}
}
