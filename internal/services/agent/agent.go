// Package agent replays recorded engine runs against the statistics server.
package agent

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/config"
	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/services/recorder"
)

// Publisher ships observations and runs to the statistics server.
type Publisher interface {
	SendSamples(ctx context.Context, batch []domain.Observation) (recorder.Summary, error)
	SendEngineRun(ctx context.Context, run recorder.EngineRun) (recorder.Summary, error)
	SendSearch(ctx context.Context, run recorder.SearchRun) (recorder.Summary, error)
}

// Report sums up one replay.
type Report struct {
	Lines   int `json:"lines"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Invalid int `json:"invalid"`
}

// Service reads NDJSON records and pushes them in batches.
type Service struct {
	pub    Publisher
	cfg    config.AgentConfig
	logger *zap.Logger
}

// New wires together the agent configuration, publisher and logger.
func New(cfg config.AgentConfig, p Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Service{cfg: cfg, pub: p, logger: logger}
}

// Run replays every record of in. Invalid lines are logged and skipped.
// When ctx is cancelled the remaining input is not read; batches already
// queued still go out under the cancelled context and count as failed.
func (s *Service) Run(ctx context.Context, in io.Reader) (Report, error) {
	sender := NewBatchPublisher(s.pub, s.cfg.RateLimit, s.logger)
	sender.Start(ctx)

	var (
		rep   Report
		batch = make([]Record, 0, s.cfg.BatchSize)
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		sender.Submit(batch)
		batch = make([]Record, 0, s.cfg.BatchSize)
	}

	scanErr := scanRecords(&ctxReader{ctx: ctx, r: in}, func(n int, line []byte) {
		rep.Lines++
		rec, err := ParseRecord(line)
		if err != nil {
			rep.Invalid++
			s.logger.Warn("skipping invalid record", zap.Int("line", n), zap.Error(err))
			return
		}
		batch = append(batch, rec)
		if len(batch) >= s.cfg.BatchSize {
			flush()
		}
	})
	if scanErr == nil {
		flush()
	}
	sender.Stop()

	rep.Sent, rep.Failed = sender.Counts()
	s.logger.Info("replay finished",
		zap.Int("lines", rep.Lines),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed),
		zap.Int("invalid", rep.Invalid),
	)
	if scanErr != nil {
		return rep, fmt.Errorf("read records: %w", scanErr)
	}
	return rep, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
