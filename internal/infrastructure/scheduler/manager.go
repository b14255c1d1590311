// Package scheduler runs periodic billing maintenance using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	subscriptionUsecases "github.com/mateatletas/tutorbilling/internal/application/subscription/usecases"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const (
	defaultSweepInterval = time.Hour
	maxSweepRuntime      = 10 * time.Minute
)

// GraceSweeper escalates expired grace periods and cancels long-delinquent subscriptions.
type GraceSweeper interface {
	Execute(ctx context.Context) (*subscriptionUsecases.SweepGracePeriodsResult, error)
}

// SchedulerManager owns the gocron scheduler and the jobs registered on it.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a scheduler in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterGraceSweepJob runs the sweep once at start and then every interval. A run that
// overlaps the next tick reschedules instead of running twice.
func (m *SchedulerManager) RegisterGraceSweepJob(sweeper GraceSweeper, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	timeout := maxSweepRuntime
	if interval < timeout {
		timeout = interval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runGraceSweep(ctx, sweeper)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "grace"),
		gocron.WithName("grace-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered grace sweep job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) runGraceSweep(ctx context.Context, sweeper GraceSweeper) {
	m.logger.Debugw("grace sweep started")

	startTime := biztime.NowUTC()
	result, err := sweeper.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil && result == nil {
			m.logger.Warnw("grace sweep interrupted", "duration", time.Since(startTime))
			return
		}
		m.logger.Errorw("grace sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if result.Escalated > 0 || result.Cancelled > 0 || result.Failed > 0 {
		m.logger.Infow("grace sweep completed",
			"scanned", result.Scanned,
			"escalated", result.Escalated,
			"cancelled", result.Cancelled,
			"skipped", result.Skipped,
			"failed", result.Failed,
			"duration", time.Since(startTime),
		)
		return
	}
	m.logger.Debugw("grace sweep found nothing to escalate",
		"scanned", result.Scanned,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
