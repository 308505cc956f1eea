// Command server aggregates search engine statistics and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/config"
	"github.com/vshulcz/enginestats/pkg/buildinfo"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	if err := start(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func start() error {
	cfg, err := config.LoadServerConfig(os.Args[1:], os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("server build", buildinfo.Info{Version: buildVersion, Date: buildDate, Commit: buildCommit}.Fields()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, logger)
}
