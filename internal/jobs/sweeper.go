package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweeper periodically fails jobs that stopped reporting progress, such as
// jobs owned by a process that crashed.
type Sweeper struct {
	cron      *cron.Cron
	orch      *Orchestrator
	olderThan time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewSweeper schedules the sweep with a standard cron spec or descriptor
// such as "@every 1m".
func NewSweeper(orch *Orchestrator, schedule string, olderThan time.Duration, logger zerolog.Logger) (*Sweeper, error) {
	if olderThan <= 0 {
		return nil, fmt.Errorf("jobs: stale window must be positive")
	}
	s := &Sweeper{
		cron:      cron.New(),
		orch:      orch,
		olderThan: olderThan,
		timeout:   30 * time.Second,
		logger:    logger.With().Str("component", "sweeper").Logger(),
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("jobs: invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running sweep.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.orch.SweepStale(ctx, s.olderThan); err != nil {
		s.logger.Error().Err(err).Msg("sweeper: sweep failed")
	}
}
