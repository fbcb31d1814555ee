// Package scheduler runs housekeeping tasks, such as the export retention
// sweep, once a day.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig marks a trigger that cannot be scheduled
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned when a manual run overlaps a scheduled one
	ErrAlreadyRunning = errors.New("task is already running")
)

// Task is one run of a scheduled job
type Task func(ctx context.Context) error

// CronTriggerConfig sets when a daily task fires
type CronTriggerConfig struct {
	// Name identifies the task in logs
	Name string

	// DailyHour and DailyMinute are the local wall clock time to fire at
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often the clock is looked at
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig fires at 03:00 and checks every minute
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{Name: "task", DailyHour: 3, CheckInterval: time.Minute}
}

// Validate checks the trigger time and interval
func (c CronTriggerConfig) Validate() error {
	switch {
	case c.DailyHour < 0 || c.DailyHour > 23:
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidConfig, c.DailyHour)
	case c.DailyMinute < 0 || c.DailyMinute > 59:
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidConfig, c.DailyMinute)
	case c.CheckInterval <= 0:
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// CronTrigger fires a task once per local calendar day
type CronTrigger struct {
	cfg  CronTriggerConfig
	task Task
	log  *zap.Logger
	now  func() time.Time

	running atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	firedOn string
}

// NewCronTrigger validates cfg and binds task to it
func NewCronTrigger(cfg CronTriggerConfig, task Task, logger *zap.Logger) (*CronTrigger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task is nil", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		cfg:  cfg,
		task: task,
		log:  logger.With(zap.String("task", cfg.Name)),
		now:  time.Now,
	}, nil
}

// Start begins watching the clock. Starting a started trigger does nothing.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped != nil {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.stopped = make(chan struct{})
	go c.loop(ctx, c.stopped)

	c.log.Info("Cron trigger started",
		zap.String("at", fmt.Sprintf("%02d:%02d", c.cfg.DailyHour, c.cfg.DailyMinute)),
		zap.Duration("check_interval", c.cfg.CheckInterval),
	)
	return nil
}

// Stop cancels the trigger and waits, bounded by ctx, for a running task
// to return
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	stopped := c.stopped
	if stopped == nil {
		c.mu.Unlock()
		return nil
	}
	c.cancel()
	c.stopped = nil
	c.mu.Unlock()

	select {
	case <-stopped:
		c.log.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) loop(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires the task if the configured minute has come and the
// task has not fired yet today
func (c *CronTrigger) checkAndTrigger(ctx context.Context) {
	now := c.now()
	if now.Hour() != c.cfg.DailyHour || now.Minute() != c.cfg.DailyMinute {
		return
	}

	today := now.Format(time.DateOnly)
	c.mu.Lock()
	due := c.firedOn != today
	c.firedOn = today
	c.mu.Unlock()
	if !due {
		return
	}

	if err := c.RunNow(ctx); err != nil {
		c.log.Error("Scheduled task failed", zap.Error(err))
	}
}

// RunNow runs the task immediately. Overlapping runs are rejected with
// ErrAlreadyRunning.
func (c *CronTrigger) RunNow(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	start := time.Now()
	if err := c.task(ctx); err != nil {
		return err
	}
	c.log.Info("Scheduled task finished", zap.Duration("took", time.Since(start)))
	return nil
}
