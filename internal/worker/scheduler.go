package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/config"
)

// Job names, also used as metric labels.
const (
	JobDailyReminder = "daily_reminder"
	JobDailySummary  = "daily_expense_summary"
)

// Notifier sends the scheduled mail.
type Notifier interface {
	SendDailyReminders(ctx context.Context) error
	SendDailyExpenseSummaries(ctx context.Context, day time.Time) error
}

// JobRecorder counts job executions.
type JobRecorder interface {
	RecordJobRun(job, outcome string)
}

// Scheduler runs the notification jobs on cron schedules evaluated in the
// configured timezone.
type Scheduler struct {
	cron     *cron.Cron
	notifier Notifier
	recorder JobRecorder
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler registers both jobs. Invalid cron expressions are reported
// here rather than at start.
func NewScheduler(cfg config.NotificationConfig, notifier Notifier, recorder JobRecorder, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		notifier: notifier,
		recorder: recorder,
		logger:   logger,
		location: cfg.Location(),
		now:      time.Now,
		ctx:      context.Background(),
	}
	s.cron = cron.New(cron.WithLocation(s.location))

	if _, err := s.cron.AddFunc(cfg.ReminderCron, func() { _ = s.Run(s.baseContext(), JobDailyReminder) }); err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", cfg.ReminderCron, err)
	}
	if _, err := s.cron.AddFunc(cfg.SummaryCron, func() { _ = s.Run(s.baseContext(), JobDailySummary) }); err != nil {
		return nil, fmt.Errorf("summary schedule %q: %w", cfg.SummaryCron, err)
	}
	return s, nil
}

// Start begins firing jobs. ctx is handed to every run; cancel it to abort
// runs in flight.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.logger.Info("job scheduled", zap.Time("next", e.Next))
	}
}

// Stop prevents new runs and waits for running ones to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Run executes one job immediately.
func (s *Scheduler) Run(ctx context.Context, job string) error {
	start := time.Now()
	var err error
	switch job {
	case JobDailyReminder:
		err = s.notifier.SendDailyReminders(ctx)
	case JobDailySummary:
		err = s.notifier.SendDailyExpenseSummaries(ctx, s.now().In(s.location))
	default:
		return fmt.Errorf("unknown job %q", job)
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
		s.logger.Error("job failed", zap.String("job", job), zap.Error(err))
	} else {
		s.logger.Info("job completed", zap.String("job", job), zap.Duration("took", time.Since(start)))
	}
	if s.recorder != nil {
		s.recorder.RecordJobRun(job, outcome)
	}
	return err
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
