package bot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/bot"
	"github.com/edgard/dayplanbot/internal/bot/tasks"
	"github.com/edgard/dayplanbot/internal/config"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRunner struct {
	err       error
	immediate bool
}

func (r *fakeRunner) Run(ctx context.Context) error {
	if r.err != nil || r.immediate {
		return r.err
	}
	<-ctx.Done()
	return nil
}

type fakeLifecycle struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	startErr error
}

func (l *fakeLifecycle) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = true
	return l.startErr
}

func (l *fakeLifecycle) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	return nil
}

func (l *fakeLifecycle) state() (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started, l.stopped
}

func TestBotRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	sched := &fakeLifecycle{}
	b := bot.NewBot(discard(), &fakeRunner{}, sched)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool {
		started, _ := sched.state()
		return started
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
	}
	_, stopped := sched.state()
	assert.True(t, stopped)
}

func TestBotRunFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		runner *fakeRunner
		sched  *fakeLifecycle
	}{
		{"listener error", &fakeRunner{err: errors.New("unauthorized")}, &fakeLifecycle{}},
		{"listener exits early", &fakeRunner{immediate: true}, &fakeLifecycle{}},
		{"scheduler start error", &fakeRunner{}, &fakeLifecycle{startErr: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := bot.NewBot(discard(), tt.runner, tt.sched)
			assert.Error(t, b.Run(context.Background()))
		})
	}
}

func noop(context.Context) error { return nil }

func TestSchedulerRegistersEnabledTasks(t *testing.T) {
	t.Parallel()
	cfg := &config.SchedulerConfig{
		Timezone: "Europe/Warsaw",
		Tasks: map[string]config.TaskConfig{
			"morning_reminder": {Enabled: true, Schedule: "0 8 * * *"},
			"evening_check":    {Enabled: true, Schedule: "0 21 * * *"},
			"prayer_check":     {Enabled: false, Schedule: "* * * * *"},
			"unknown_task":     {Enabled: true, Schedule: "0 1 * * *"},
			"tiktok_report":    {Enabled: true, Schedule: "not a cron"},
		},
	}
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"morning_reminder": noop,
		"evening_check":    noop,
		"prayer_check":     noop,
		"tiktok_report":    noop,
	}

	s, err := bot.NewScheduler(discard(), cfg, taskMap)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{"evening_check", "morning_reminder"}, s.JobNames())
	assert.Error(t, s.Start())
}

func TestSchedulerRejectsBadZone(t *testing.T) {
	t.Parallel()
	_, err := bot.NewScheduler(discard(), &config.SchedulerConfig{Timezone: "Mars/Olympus"}, nil)
	assert.Error(t, err)
}

func TestSchedulerStop(t *testing.T) {
	t.Parallel()
	s, err := bot.NewScheduler(discard(), &config.SchedulerConfig{Timezone: "UTC"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	assert.Empty(t, s.JobNames())
	require.NoError(t, s.Stop())
}
