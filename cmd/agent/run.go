package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/adapters/publisher/httpjson"
	"github.com/vshulcz/enginestats/internal/config"
	agentsvc "github.com/vshulcz/enginestats/internal/services/agent"
)

// run replays cfg.Input, or stdin when it is empty, and fails when any
// record could not be delivered.
func run(ctx context.Context, cfg config.AgentConfig, stdin io.Reader, logger *zap.Logger) (err error) {
	in := stdin
	if cfg.Input != "" {
		f, oerr := os.Open(cfg.Input)
		if oerr != nil {
			return fmt.Errorf("open input: %w", oerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		in = f
	}

	pub, err := httpjson.New(cfg.Address, &http.Client{}, cfg.Key)
	if err != nil {
		return fmt.Errorf("failed to init publisher: %w", err)
	}

	logger.Info("agent started",
		zap.String("server", cfg.Address),
		zap.String("input", inputName(cfg.Input)),
		zap.Int("rate_limit", cfg.RateLimit),
		zap.Int("batch_size", cfg.BatchSize),
	)
	rep, err := agentsvc.New(cfg, pub, logger).Run(ctx, in)
	if err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d records not delivered", rep.Failed, rep.Sent+rep.Failed)
	}
	return nil
}

func inputName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
