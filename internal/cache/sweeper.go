package cache

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule purges expired entries once a minute.
const DefaultSweepSchedule = "@every 1m"

// Sweeper purges expired cache entries on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	cache  *Cache
	logger *slog.Logger
}

// NewSweeper registers a purge job for c on schedule.
func NewSweeper(c *Cache, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{cron: cron.New(), cache: c, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid cache sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep purges expired entries once.
func (s *Sweeper) Sweep() {
	if n := s.cache.Purge(); n > 0 {
		s.logger.Debug("purged expired cache entries", "count", n, "remaining", s.cache.Len())
	}
}

// AddFunc schedules fn on the sweeper's cron alongside the purge job.
func (s *Sweeper) AddFunc(schedule string, fn func()) error {
	if _, err := s.cron.AddFunc(schedule, fn); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("cache sweeper started")
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cache sweeper stopped")
}
