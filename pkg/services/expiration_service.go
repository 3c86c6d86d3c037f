package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/metrics"
	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/repositories"
)

// ErrExpirationRunInProgress is returned by RunOnce when another run has not finished yet.
var ErrExpirationRunInProgress = errors.New("expiration run already in progress")

// ExpirationConfig controls which tasks expire and how often the job runs.
type ExpirationConfig struct {
	Enabled      bool
	Delay        time.Duration // pause between the end of a run and the next start
	InitialDelay time.Duration // pause before the first run; negative means Delay, zero runs at once
	Expiration   time.Duration // age of date_time after which a task expires
	Limit        int           // max tasks transitioned per run
	FromStatus   models.TaskStatus
	ToStatus     models.TaskStatus
}

// ExpirationService periodically moves tasks whose date_time is older than
// the expiration window from one status to another.
type ExpirationService interface {
	// RunOnce performs a single bounded expiration pass and returns the number
	// of tasks transitioned. Concurrent calls fail with ErrExpirationRunInProgress.
	RunOnce(ctx context.Context) (int64, error)

	// Start launches the fixed-delay loop. The first run happens after
	// InitialDelay; each following run starts Delay after the previous one
	// finished. Does nothing when the job is disabled or already started.
	Start(ctx context.Context)

	// Stop cancels the loop and waits for an in-flight run to return.
	Stop()
}

type expirationService struct {
	taskRepo repositories.TaskRepository
	cfg      ExpirationConfig
	metrics  *metrics.ExpirationMetrics
	logger   *zap.Logger
	now      func() time.Time

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewExpirationService creates the expiration job. m may be nil.
func NewExpirationService(
	taskRepo repositories.TaskRepository,
	cfg ExpirationConfig,
	m *metrics.ExpirationMetrics,
	logger *zap.Logger,
) ExpirationService {
	return newExpirationService(taskRepo, cfg, m, logger)
}

func newExpirationService(
	taskRepo repositories.TaskRepository,
	cfg ExpirationConfig,
	m *metrics.ExpirationMetrics,
	logger *zap.Logger,
) *expirationService {
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = cfg.Delay
	}
	return &expirationService{
		taskRepo: taskRepo,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.Named("expiration-service"),
		now:      time.Now,
	}
}

var _ ExpirationService = (*expirationService)(nil)

func (s *expirationService) RunOnce(ctx context.Context) (int64, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.ObserveRun(metrics.ResultSkipped, 0, 0)
		return 0, ErrExpirationRunInProgress
	}
	defer s.running.Store(false)

	started := time.Now()
	count, err := s.expire(ctx)
	if err != nil {
		s.metrics.ObserveRun(metrics.ResultError, 0, time.Since(started))
		return 0, err
	}
	s.metrics.ObserveRun(metrics.ResultSuccess, count, time.Since(started))
	return count, nil
}

func (s *expirationService) expire(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.Expiration)

	tasks, err := s.taskRepo.FindExpirable(ctx, s.cfg.FromStatus, cutoff, s.cfg.Limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired tasks: %w", err)
	}
	if len(tasks) == 0 {
		s.logger.Debug("No expired tasks", zap.Time("cutoff", cutoff))
		return 0, nil
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	count, err := s.taskRepo.TransitionStatus(ctx, ids, s.cfg.ToStatus)
	if err != nil {
		return 0, fmt.Errorf("failed to update expired tasks: %w", err)
	}

	s.logger.Info("Updated expired tasks",
		zap.Int64("count", count),
		zap.Int("selected", len(ids)),
		zap.Time("cutoff", cutoff),
		zap.String("to_status", string(s.cfg.ToStatus)))
	s.logger.Debug("Expired task ids", zap.Int64s("task_ids", ids))

	return count, nil
}

func (s *expirationService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("Expired task scheduler disabled")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("Expired task scheduler started",
		zap.Duration("initial_delay", s.cfg.InitialDelay),
		zap.Duration("delay", s.cfg.Delay),
		zap.Duration("expiration", s.cfg.Expiration),
		zap.Int("update_limit", s.cfg.Limit))

	go s.loop(loopCtx, s.done)
}

// loop owns the timer; it is re-armed only after a run returns, so runs
// never overlap and the delay is measured from the end of the previous run.
func (s *expirationService) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.cfg.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Expired task scheduler stopped")
			return
		case <-timer.C:
			s.runScheduled(ctx)
			timer.Reset(s.cfg.Delay)
		}
	}
}

// runScheduled executes one run, logging failures instead of returning them.
func (s *expirationService) runScheduled(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveRun(metrics.ResultError, 0, 0)
			s.logger.Error("Expired task run panicked", zap.Any("panic", r))
		}
	}()

	if _, err := s.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Could not update expired tasks", zap.Error(err))
	}
}

func (s *expirationService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
