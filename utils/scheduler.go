package utils

import (
	"fmt"
	"time"

	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartReminderScheduler runs job every interval. A run still in progress
// when the next tick fires causes that tick to be skipped. Stop the returned
// cron to end the schedule.
func StartReminderScheduler(interval time.Duration, logger *zap.Logger, job func()) (*cron.Cron, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	cl := cronLogger{logger.Sugar()}
	c := cron.New(cron.WithChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	))

	if _, err := c.AddFunc("@every "+interval.String(), job); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	c.Start()
	logger.Info("reminder scheduler started", zap.Duration("interval", interval))
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
