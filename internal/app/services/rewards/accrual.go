package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/StakePool-Labs/staking_layer/internal/app/system"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// DefaultAccrualSchedule credits interest once per hour.
const DefaultAccrualSchedule = "@every 1h"

// AccrualRunner periodically runs the reward accrual pass. Schedules use
// cron syntax, including the @every form.
type AccrualRunner struct {
	service  *Service
	schedule cron.Schedule
	log      *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

var _ system.Service = (*AccrualRunner)(nil)

// NewAccrualRunner builds a runner for the given cron schedule. An empty or
// invalid schedule falls back to hourly.
func NewAccrualRunner(service *Service, schedule string, log *logger.Logger) *AccrualRunner {
	if log == nil {
		log = logger.NewDefault("rewards-accrual")
	}
	if schedule == "" {
		schedule = DefaultAccrualSchedule
	}
	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		log.WithError(err).Warnf("invalid accrual schedule %q; using %s", schedule, DefaultAccrualSchedule)
		parsed, _ = cron.ParseStandard(DefaultAccrualSchedule)
	}
	return &AccrualRunner{
		service:  service,
		schedule: parsed,
		log:      log,
	}
}

func (r *AccrualRunner) Name() string { return "rewards-accrual" }

func (r *AccrualRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := r.schedule.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-runCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				r.tick(runCtx)
			}
		}
	}()

	r.log.Info("reward accrual runner started")
	return nil
}

func (r *AccrualRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (r *AccrualRunner) tick(ctx context.Context) {
	if _, _, err := r.service.RunAccrual(ctx); err != nil {
		r.log.WithError(err).Warn("accrual pass failed")
	}
}
