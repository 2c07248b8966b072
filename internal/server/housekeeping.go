package server

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	limiterMaxIdle     = 30 * time.Minute
	housekeepingBudget = 30 * time.Second
)

// StartHousekeeping schedules limiter cleanup and the drift report. Runs
// never overlap; a slow run pushes the next one back.
func (s *Server) StartHousekeeping() error {
	period := s.cfg.HousekeepingPeriod
	if period <= 0 {
		period = 10 * time.Minute
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), housekeepingBudget)
			defer cancel()
			s.runHousekeeping(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("housekeeping"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule housekeeping: %w", err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	zap.L().Info("Housekeeping scheduled", zap.Duration("period", period))
	return nil
}

// StopHousekeeping waits for a running job and stops the scheduler
func (s *Server) StopHousekeeping() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// runHousekeeping drops idle rate limiters and reports accounts whose
// balance drifted from earned minus withdrawn. Nothing is corrected.
func (s *Server) runHousekeeping(ctx context.Context) {
	removed := s.limiter.Cleanup(limiterMaxIdle)
	zap.L().Debug("Rate limiters cleaned up",
		zap.Int("removed", removed),
		zap.Int("remaining", s.limiter.Size()))

	drift, err := s.store.GetAccountDrift(ctx)
	if err != nil {
		zap.L().Warn("Drift report failed", zap.Error(err))
		return
	}
	s.metrics.driftedAccounts.Set(float64(len(drift)))

	for _, d := range drift {
		zap.L().Warn("Account drift detected",
			zap.Int64("user_id", d.UserId),
			zap.Int64("points", d.Points),
			zap.Int64("expected", d.Expected()))
	}
}
