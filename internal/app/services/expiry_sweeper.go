package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Expirer deactivates notifications whose expiry has passed
type Expirer interface {
	DeactivateExpired(ctx context.Context) (int, error)
}

// ExpirySweeper periodically switches off expired notifications
type ExpirySweeper struct {
	expirer   Expirer
	interval  time.Duration
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

// NewExpirySweeper creates a sweeper running every interval. It does nothing
// until Start is called.
func NewExpirySweeper(expirer Expirer, interval time.Duration, logger zerolog.Logger) (*ExpirySweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &ExpirySweeper{
		expirer:   expirer,
		interval:  interval,
		scheduler: scheduler,
		logger:    logger,
	}, nil
}

// Start registers the sweep job and starts the scheduler
func (s *ExpirySweeper) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Expiry sweep failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	s.scheduler.Start()
	s.logger.Info().Dur("interval", s.interval).Msg("Expiry sweeper started")
	return nil
}

// Sweep runs a single deactivation pass
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	count, err := s.expirer.DeactivateExpired(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info().Int("count", count).Msg("Deactivated expired notifications")
	}
	return count, nil
}

// Stop waits for a running sweep and shuts the scheduler down
func (s *ExpirySweeper) Stop() error {
	return s.scheduler.Shutdown()
}
