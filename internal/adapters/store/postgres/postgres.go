// Package postgres implements a Postgres-backed metric store.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/enginestats/internal/domain"
	"github.com/vshulcz/enginestats/internal/misc"
	"github.com/vshulcz/enginestats/internal/ports"
)

// Store keeps histograms as bigint arrays and counters as plain rows, with retryable operations.
//
// The tables are shared by every server process, so registration is additive:
// ConfigureMeasure and ResetCounter create missing rows and leave existing data
// alone. A measure is emptied only when its bucket layout changed.
type Store struct {
	db *sql.DB
}

var _ ports.MetricStore = (*Store)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

// New returns a Postgres-backed store. Call Migrate first.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ConfigureMeasure creates the histogram. An existing row keeps its samples unless
// its width or size differ, in which case it is replaced by an empty one.
func (s *Store) ConfigureMeasure(ctx context.Context, width float64, size int, key domain.MetricKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key.String())
	}
	if width <= 0 || size <= 0 {
		return fmt.Errorf("measure %s: width and size must be positive", key)
	}
	const q = `
INSERT INTO measures (key, width, size, total, sum, buckets, updated_at)
VALUES ($1, $2, $3, 0, 0, $4, now())
ON CONFLICT (key)
DO UPDATE SET width=EXCLUDED.width, size=EXCLUDED.size, total=0, sum=0, buckets=EXCLUDED.buckets, updated_at=now()
WHERE measures.width <> EXCLUDED.width OR measures.size <> EXCLUDED.size;`
	buckets := make([]int64, size)
	op := func() error {
		_, err := s.db.ExecContext(ctx, q, key.String(), width, size, pq.Array(buckets))
		return err
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// ResetCounter creates the counter at zero; an existing counter keeps its value.
func (s *Store) ResetCounter(ctx context.Context, key domain.MetricKey) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key.String())
	}
	const q = `
INSERT INTO counters (key, value, updated_at)
VALUES ($1, 0, now())
ON CONFLICT (key) DO NOTHING;`
	op := func() error {
		_, err := s.db.ExecContext(ctx, q, key.String())
		return err
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// RecordSample locks the histogram row, picks the bucket and bumps it with total and sum.
func (s *Store) RecordSample(ctx context.Context, key domain.MetricKey, value float64) error {
	const qSelect = `SELECT width, size FROM measures WHERE key=$1 FOR UPDATE`
	const qUpdate = `
UPDATE measures
SET total=total+1, sum=sum+$2, buckets[$3]=buckets[$3]+1, updated_at=now()
WHERE key=$1;`
	attempt := func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		var (
			width float64
			size  int
		)
		if err := tx.QueryRowContext(ctx, qSelect, key.String()).Scan(&width, &size); err != nil {
			return err
		}
		// Postgres arrays are 1-based.
		idx := domain.BucketIndex(value, width, size) + 1
		if _, err := tx.ExecContext(ctx, qUpdate, key.String(), value, idx); err != nil {
			return err
		}
		return tx.Commit()
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, attempt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
		}
		return err
	}
	return nil
}

// IncrementCounter adds delta to a configured counter.
func (s *Store) IncrementCounter(ctx context.Context, key domain.MetricKey, delta int64) error {
	const q = `UPDATE counters SET value=value+$2, updated_at=now() WHERE key=$1`
	var affected int64
	op := func() error {
		res, err := s.db.ExecContext(ctx, q, key.String(), delta)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
	}
	return nil
}

// Measure reads a histogram snapshot.
func (s *Store) Measure(ctx context.Context, key domain.MetricKey) (domain.Measure, error) {
	const q = `SELECT width, total, sum, buckets FROM measures WHERE key=$1`
	var m domain.Measure
	op := func() error {
		m = domain.Measure{}
		var buckets []int64
		if err := s.db.QueryRowContext(ctx, q, key.String()).Scan(&m.Width, &m.Count, &m.Sum, pq.Array(&buckets)); err != nil {
			return err
		}
		m.Buckets = buckets
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Measure{}, fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
		}
		return domain.Measure{}, err
	}
	return m, nil
}

// Counter reads a counter value.
func (s *Store) Counter(ctx context.Context, key domain.MetricKey) (int64, error) {
	const q = `SELECT value FROM counters WHERE key=$1`
	var v int64
	op := func() error {
		return s.db.QueryRowContext(ctx, q, key.String()).Scan(&v)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrUnknownMetric, key)
		}
		return 0, err
	}
	return v, nil
}

// Ping verifies the database connection using a short-lived context.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return s.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// IsRetryable reports whether the error should trigger a retry according to Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "40")
}
