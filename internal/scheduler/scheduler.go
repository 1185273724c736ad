package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imagebot/internal/config"
	"imagebot/internal/core"

	"github.com/robfig/cron/v3"
)

// Refresher is the part of models.Refresher the scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context, cfg *config.BotConfig, action string)
}

// Config holds dependencies for the scheduler.
type Config struct {
	Refresher Refresher
	BotConfig *config.BotConfig
	// Spec is a standard cron expression or descriptor such as "@every 1h".
	Spec   string
	Logger core.Logger
}

// Scheduler runs the startup model refresh and the periodic one. Refreshes
// never overlap: every run goes through the same mutex.
type Scheduler struct {
	refresher Refresher
	botConfig *config.BotConfig
	spec      string
	logger    core.Logger

	cron *cron.Cron
	mu   sync.Mutex
	wg   sync.WaitGroup

	runCtx    context.Context
	cancelRun context.CancelFunc
}

// New validates the schedule and creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Refresher == nil {
		return nil, fmt.Errorf("refresher is required in scheduler Config")
	}
	if cfg.BotConfig == nil || cfg.BotConfig.Models == nil {
		return nil, fmt.Errorf("bot config with a model list is required in scheduler Config")
	}

	spec := cfg.Spec
	if spec == "" {
		spec = core.DefaultRefreshSchedule
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}

	return &Scheduler{
		refresher: cfg.Refresher,
		botConfig: cfg.BotConfig,
		spec:      spec,
		logger:    logger,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Start launches the startup refresh in the background and registers the
// periodic refresh. Both stop when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.runCtx, s.cancelRun = context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.spec, func() {
		s.RunNow(s.runCtx, core.ActionModelRefresh)
	}); err != nil {
		s.cancelRun()
		return fmt.Errorf("register refresh job: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow(s.runCtx, core.ActionModelInit)
	}()

	s.cron.Start()
	s.logger.Info("Model refresh scheduled: %s", s.spec)
	return nil
}

// RunNow performs one refresh tagged with action, waiting for any refresh
// already in progress.
func (s *Scheduler) RunNow(ctx context.Context, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.refresher.Refresh(ctx, s.botConfig, action)
	s.logger.Debug("Refresh %s finished in %v, %d model(s) advertised",
		action, time.Since(start), s.botConfig.Models.Len())
}

// Stop cancels in-flight refreshes and waits for them to return, bounded by
// core.SchedulerStopTimeout.
func (s *Scheduler) Stop() {
	if s.cancelRun != nil {
		s.cancelRun()
	}
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Model refresh scheduler stopped")
	case <-time.After(core.SchedulerStopTimeout):
		s.logger.Warn("Model refresh scheduler did not stop within %v", core.SchedulerStopTimeout)
	}
}
