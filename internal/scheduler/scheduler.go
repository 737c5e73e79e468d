package scheduler

import (
	"context"
	"log/slog"
	"retail_bank/internal/domain"
	"time"

	"github.com/robfig/cron/v3"
)

// StatementRunner posts monthly statements for every open account.
type StatementRunner interface {
	Statements(ctx context.Context) ([]domain.Statement, error)
}

// Scheduler runs the statement cycle on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	runner   StatementRunner
	schedule string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(runner StatementRunner, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Scheduler{
		cron:     c,
		runner:   runner,
		schedule: schedule,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

// Start registers the statement job and starts the cron loop. An empty
// schedule disables the job.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("Statement job disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.RunStatements); err != nil {
		s.logger.Error("Failed to schedule statement job", "schedule", s.schedule, "error", err)
		return err
	}
	s.logger.Info("Scheduled statement job", "schedule", s.schedule)

	s.cron.Start()
	return nil
}

// RunStatements runs one statement cycle.
func (s *Scheduler) RunStatements() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	statements, err := s.runner.Statements(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Statement job failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "Statement job completed",
		slog.Int("statements", len(statements)),
		slog.Duration("duration", time.Since(start)))
}

// Stop stops the cron loop. The returned context is done once a running job
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
