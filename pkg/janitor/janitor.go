// Package janitor periodically purges execution states that nobody resumed.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pipeflow/pkg/metrics"
	"github.com/dukex/pipeflow/pkg/persistence"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 1h"

var (
	ErrInvalidSchedule = errors.New("invalid janitor schedule")
	ErrInvalidMaxAge   = errors.New("janitor max age must be positive")
	ErrAlreadyStarted  = errors.New("janitor already started")
)

type Option func(*Janitor)

func WithMetrics(collector *metrics.Collector) Option {
	return func(j *Janitor) {
		j.metrics = collector
	}
}

func WithClock(now func() time.Time) Option {
	return func(j *Janitor) {
		j.now = now
	}
}

// Janitor deletes states whose last update is older than maxAge.
type Janitor struct {
	store    persistence.StateStore
	logger   *slog.Logger
	metrics  *metrics.Collector
	now      func() time.Time
	schedule string
	maxAge   time.Duration

	mutex   sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(store persistence.StateStore, logger *slog.Logger, schedule string, maxAge time.Duration, opts ...Option) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, schedule, err)
	}

	if maxAge <= 0 {
		return nil, ErrInvalidMaxAge
	}

	j := &Janitor{
		store:    store,
		logger:   logger.With("module", "janitor"),
		now:      func() time.Time { return time.Now().UTC() },
		schedule: schedule,
		maxAge:   maxAge,
	}

	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// Start schedules the sweep. The sweep stops when ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cron != nil {
		return ErrAlreadyStarted
	}

	j.ctx, j.cancel = context.WithCancel(ctx)
	j.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := j.cron.AddFunc(j.schedule, j.run)
	if err != nil {
		j.cancel()
		j.cron = nil

		return fmt.Errorf("failed to schedule janitor: %w", err)
	}

	j.entryID = entryID
	j.cron.Start()

	j.logger.InfoContext(ctx, "Janitor started", "schedule", j.schedule, "max_age", j.maxAge.String())

	return nil
}

func (j *Janitor) Stop(ctx context.Context) error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cron == nil {
		return nil
	}

	j.cancel()

	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	j.cron = nil
	j.logger.InfoContext(ctx, "Janitor stopped")

	return nil
}

// NextRun returns when the next sweep is due, or the zero time if the janitor
// is not running.
func (j *Janitor) NextRun() time.Time {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cron == nil {
		return time.Time{}
	}

	return j.cron.Entry(j.entryID).Next
}

// Sweep purges stale states once and returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.maxAge)

	purged, err := j.store.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge states before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	j.metrics.RecordPurged(purged)

	if purged > 0 {
		j.logger.InfoContext(ctx, "Purged stale execution states", "count", purged, "cutoff", cutoff)
	} else {
		j.logger.DebugContext(ctx, "No stale execution states", "cutoff", cutoff)
	}

	return purged, nil
}

func (j *Janitor) run() {
	if _, err := j.Sweep(j.ctx); err != nil {
		j.logger.ErrorContext(j.ctx, "Janitor sweep failed", "error", err)
	}
}
