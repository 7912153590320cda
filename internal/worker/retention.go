package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
)

// RetentionSweeper periodically deletes reports older than the configured
// retention window.
type RetentionSweeper struct {
	repo     recommendation.Repository
	cfg      config.ReportConfig
	log      *logger.Logger
	schedule *cron.Cron
}

// NewRetentionSweeper creates a sweeper; call Start to schedule it.
func NewRetentionSweeper(repo recommendation.Repository, cfg config.ReportConfig, log *logger.Logger) *RetentionSweeper {
	return &RetentionSweeper{
		repo:     repo,
		cfg:      cfg,
		log:      log,
		schedule: cron.New(),
	}
}

// Start schedules the sweep on the configured cron expression.
func (s *RetentionSweeper) Start() error {
	_, err := s.schedule.AddFunc(s.cfg.SweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.schedule.Start()
	s.log.WithFields(map[string]interface{}{
		"schedule":       s.cfg.SweepSchedule,
		"retention_days": s.cfg.RetentionDays,
	}).Info("report retention sweeper started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *RetentionSweeper) Stop() {
	<-s.schedule.Stop().Done()
}

// Sweep deletes reports past the retention window once.
func (s *RetentionSweeper) Sweep(ctx context.Context) {
	if s.cfg.RetentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.ErrorWithErr(err, "retention sweep failed")
		return
	}

	if deleted > 0 {
		s.log.WithFields(map[string]interface{}{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("retention sweep removed stale reports")
	}
}
