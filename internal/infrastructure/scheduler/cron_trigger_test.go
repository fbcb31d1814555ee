package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronTriggerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultCronTriggerConfig().Validate())

	cfg := DefaultCronTriggerConfig()
	cfg.DailyHour = 24
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultCronTriggerConfig()
	cfg.CheckInterval = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := NewCronTrigger(DefaultCronTriggerConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCronTrigger_RunsOncePerDay(t *testing.T) {
	var runs atomic.Int32
	trigger, err := NewCronTrigger(DefaultCronTriggerConfig(), func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Date(2025, 6, 1, 2, 59, 0, 0, time.Local)
	trigger.now = func() time.Time { return now }

	trigger.checkAndTrigger(ctx)
	assert.Equal(t, int32(0), runs.Load(), "not yet time")

	now = now.Add(time.Minute)
	trigger.checkAndTrigger(ctx)
	trigger.checkAndTrigger(ctx)
	assert.Equal(t, int32(1), runs.Load())

	now = now.Add(24 * time.Hour)
	trigger.checkAndTrigger(ctx)
	assert.Equal(t, int32(2), runs.Load())
}

func TestCronTrigger_RunNowRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	trigger, err := NewCronTrigger(DefaultCronTriggerConfig(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- trigger.RunNow(context.Background()) }()
	<-started

	assert.ErrorIs(t, trigger.RunNow(context.Background()), ErrAlreadyRunning)
	close(release)
	assert.NoError(t, <-done)
}

func TestCronTrigger_StartStop(t *testing.T) {
	cfg := DefaultCronTriggerConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	trigger, err := NewCronTrigger(cfg, func(context.Context) error { return nil }, nil)
	require.NoError(t, err)

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, trigger.Stop(ctx))
	assert.NoError(t, trigger.Stop(ctx))
}
