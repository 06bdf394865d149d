// Package scheduler provides job scheduling for recurring maintenance
// tasks such as database vacuuming and session sweeps.
package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron with cron-expression jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates and starts a new scheduler instance configured to use UTC
// timezone and structured logging.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s.Start()

	return &Scheduler{scheduler: s}, nil
}

// AddJob adds a new job to the scheduler using a cron expression.
func (s *Scheduler) AddJob(name, cronExpr string, job func()) error {
	if name == "" {
		return errors.New("empty job name")
	}
	if cronExpr == "" {
		return errors.New("empty cron expression")
	}
	if job == nil {
		return errors.New("nil job function")
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(job),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	return nil
}

// Stop gracefully shuts down the scheduler and waits for running jobs to
// complete before returning.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

type gocronLogAdapter struct{}

func (l *gocronLogAdapter) Debug(msg string, args ...any) {
	slog.Debug(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Info(msg string, args ...any) {
	slog.Info(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Warn(msg string, args ...any) {
	slog.Warn(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Error(msg string, args ...any) {
	slog.Error(msg, toSlogArgs(args)...)
}

func toSlogArgs(args []any) []any {
	slogArgs := make([]any, 0, len(args))

	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}
			slogArgs = append(slogArgs, key, args[i+1])
		} else {
			slogArgs = append(slogArgs, "value", args[i])
		}
	}

	return slogArgs
}
