package agent

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vshulcz/enginestats/internal/domain"
)

// BatchPublisher fans record batches out to a fixed number of workers.
// Each batch goes out as one sample request; on failure every record is
// retried on its own endpoint.
type BatchPublisher struct {
	pub     Publisher
	logger  *zap.Logger
	workers int
	jobs    chan []Record
	wg      sync.WaitGroup

	sent   atomic.Int64
	failed atomic.Int64
}

// NewBatchPublisher returns a publisher running at least one worker.
func NewBatchPublisher(pub Publisher, workers int, logger *zap.Logger) *BatchPublisher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchPublisher{
		pub:     pub,
		logger:  logger,
		workers: workers,
		jobs:    make(chan []Record, workers*2),
	}
}

func (bp *BatchPublisher) Start(ctx context.Context) {
	for i := range bp.workers {
		bp.wg.Add(1)
		go func(id int) {
			defer bp.wg.Done()
			log := bp.logger.With(zap.Int("worker", id))
			for batch := range bp.jobs {
				if len(batch) == 0 {
					continue
				}
				bp.publish(ctx, log, batch)
			}
		}(i + 1)
	}
}

func (bp *BatchPublisher) publish(ctx context.Context, log *zap.Logger, batch []Record) {
	obs := make([]domain.Observation, 0, len(batch)*10)
	for _, r := range batch {
		o, err := r.Observations()
		if err != nil {
			// ParseRecord already rejected these.
			continue
		}
		obs = append(obs, o...)
	}
	_, err := bp.pub.SendSamples(ctx, obs)
	if err == nil {
		bp.sent.Add(int64(len(batch)))
		return
	}
	log.Warn("batch send failed, falling back to single requests",
		zap.Int("records", len(batch)), zap.Error(err))

	for _, r := range batch {
		switch {
		case r.Run != nil:
			_, err = bp.pub.SendEngineRun(ctx, *r.Run)
		case r.Search != nil:
			_, err = bp.pub.SendSearch(ctx, *r.Search)
		default:
			err = errEmptyRecord
		}
		if err != nil {
			bp.failed.Add(1)
			log.Error("send single failed", zap.Error(err))
			continue
		}
		bp.sent.Add(1)
	}
}

// Stop waits for queued batches to drain.
func (bp *BatchPublisher) Stop() {
	close(bp.jobs)
	bp.wg.Wait()
}

func (bp *BatchPublisher) Submit(batch []Record) {
	bp.jobs <- batch
}

// Counts returns how many records were accepted and how many were lost.
func (bp *BatchPublisher) Counts() (sent, failed int) {
	return int(bp.sent.Load()), int(bp.failed.Load())
}
