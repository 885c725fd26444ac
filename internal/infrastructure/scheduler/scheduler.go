package scheduler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/gotoUSA/django-shopping-mall-sub001/internal/infrastructure/logging"
	"github.com/gotoUSA/django-shopping-mall-sub001/internal/usecase"
)

// Sweeper runs the periodic ledger passes.
type Sweeper interface {
	ExpireDue(ctx context.Context, now time.Time, accountID string) (*usecase.SweepReport, error)
	NotifyUpcoming(ctx context.Context, now time.Time) (*usecase.NotifyReport, error)
}

// Locker serializes sweeps across daemon replicas.
type Locker interface {
	TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}

const (
	expireLockName = "expire"
	notifyLockName = "notify"
)

// Scheduler drives the expiry and notification sweeps on fixed intervals.
// A distributed try-lock keeps replicas from duplicating a pass; when the
// lock store is unreachable the pass runs anyway, sweeps are idempotent.
type Scheduler struct {
	sweeper        Sweeper
	locker         Locker
	logger         *logging.Logger
	holder         string
	expireInterval time.Duration
	notifyInterval time.Duration
	lockTTL        time.Duration
}

// Config for Scheduler.
type Config struct {
	Sweeper        Sweeper
	Locker         Locker // optional; nil runs unguarded
	Logger         *logging.Logger
	Holder         string // lock holder identity; defaults to hostname plus a random suffix
	ExpireInterval time.Duration
	NotifyInterval time.Duration
	LockTTL        time.Duration
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	if cfg.ExpireInterval == 0 {
		cfg.ExpireInterval = time.Hour
	}
	if cfg.NotifyInterval == 0 {
		cfg.NotifyInterval = 6 * time.Hour
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(slog.LevelInfo, "json")
	}
	if cfg.Holder == "" {
		host, _ := os.Hostname()
		cfg.Holder = host + "-" + uuid.NewString()[:8]
	}

	return &Scheduler{
		sweeper:        cfg.Sweeper,
		locker:         cfg.Locker,
		logger:         cfg.Logger,
		holder:         cfg.Holder,
		expireInterval: cfg.ExpireInterval,
		notifyInterval: cfg.NotifyInterval,
		lockTTL:        cfg.LockTTL,
	}
}

// Start begins the sweep loops. It runs until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("sweep scheduler started",
		"expire_interval", s.expireInterval.String(),
		"notify_interval", s.notifyInterval.String(),
		"holder", s.holder)

	expireTicker := time.NewTicker(s.expireInterval)
	defer expireTicker.Stop()
	notifyTicker := time.NewTicker(s.notifyInterval)
	defer notifyTicker.Stop()

	// Catch up on overdue work immediately instead of waiting a full tick.
	s.runExpire(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler shutting down")
			return ctx.Err()
		case <-expireTicker.C:
			s.runExpire(ctx)
		case <-notifyTicker.C:
			s.runNotify(ctx)
		}
	}
}

func (s *Scheduler) runExpire(ctx context.Context) {
	if !s.acquire(ctx, expireLockName) {
		return
	}
	defer s.release(ctx, expireLockName)

	started := time.Now()
	report, err := s.sweeper.ExpireDue(ctx, started, "")
	if err != nil {
		s.logger.ErrorCtx(ctx, "expiry sweep failed", "error", err.Error())
		return
	}

	s.logger.InfoCtx(logging.WithRunID(ctx, report.RunID), "expiry sweep completed",
		"accounts", report.Accounts,
		"processed", report.Processed,
		"debited", report.Debited,
		"skipped", report.Skipped,
		"failed", len(report.Failed),
		"duration", time.Since(started).String())
}

func (s *Scheduler) runNotify(ctx context.Context) {
	if !s.acquire(ctx, notifyLockName) {
		return
	}
	defer s.release(ctx, notifyLockName)

	started := time.Now()
	report, err := s.sweeper.NotifyUpcoming(ctx, started)
	if err != nil {
		s.logger.ErrorCtx(ctx, "notification sweep failed", "error", err.Error())
		return
	}

	s.logger.InfoCtx(logging.WithRunID(ctx, report.RunID), "notification sweep completed",
		"accounts", report.Accounts,
		"entries", report.Entries,
		"points", report.Points,
		"failed", len(report.Failed),
		"duration", time.Since(started).String())
}

// acquire takes the named sweep lock. A lock-store error does not block the
// pass: a duplicate sweep is wasted work, not a correctness problem.
func (s *Scheduler) acquire(ctx context.Context, name string) bool {
	if s.locker == nil {
		return true
	}

	ok, err := s.locker.TryAcquire(ctx, name, s.holder, s.lockTTL)
	if err != nil {
		s.logger.WarnCtx(ctx, "sweep lock check failed, sweeping anyway",
			"lock", name, "error", err.Error())
		return true
	}
	if !ok {
		s.logger.DebugCtx(ctx, "sweep lock held elsewhere", "lock", name)
	}
	return ok
}

// release drops the named lock. It must work during shutdown, after the
// scheduler's own context is already cancelled.
func (s *Scheduler) release(ctx context.Context, name string) {
	if s.locker == nil {
		return
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.locker.Release(releaseCtx, name, s.holder); err != nil {
		s.logger.WarnCtx(ctx, "sweep lock release failed",
			"lock", name, "error", err.Error())
	}
}
