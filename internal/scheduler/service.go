package scheduler

import (
	"context"
	"time"

	"github.com/azure/mention-tracker/internal/config"
	"github.com/azure/mention-tracker/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// digestTimeout bounds a single scheduled digest run
const digestTimeout = 10 * time.Minute

// DigestRunner produces and delivers one watchlist digest
type DigestRunner interface {
	Run(ctx context.Context) (*models.Digest, error)
}

// Service handles scheduling of watchlist digests
type Service struct {
	config *config.Config
	runner DigestRunner
	cron   *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, runner DigestRunner) *Service {
	return &Service{
		config: cfg,
		runner: runner,
		cron:   cron.New(cron.WithSeconds()),
	}
}

// Start registers the digest job. Without watch queries nothing is scheduled.
func (s *Service) Start() error {
	if len(s.config.WatchQueries) == 0 {
		logrus.Info("No watch queries configured, digest scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.DigestSchedule, s.runDigest)
	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with digest schedule %q for %d queries", s.config.DigestSchedule, len(s.config.WatchQueries))
	return nil
}

func (s *Service) runDigest() {
	logrus.Info("Starting scheduled watchlist digest")

	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()

	if _, err := s.runner.Run(ctx); err != nil {
		logrus.Errorf("Scheduled watchlist digest failed: %v", err)
	}
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
