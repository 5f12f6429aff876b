package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/dayplanbot/internal/chat"
)

// Config tunes the tracker.
type Config struct {
	// CommandPrefix is the prefix that marks a message as a bot command.
	CommandPrefix string
	// BatchPromptTTL is how long the evening "did you finish" buttons stay live.
	BatchPromptTTL time.Duration
	// TaskPromptTTL is how long the per-task and Done buttons stay live.
	TaskPromptTTL time.Duration
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces the tracker's time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker runs the task tracker for every channel.
type Tracker struct {
	store    *Store
	sessions *Sessions
	prompts  *Prompts
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Tracker backed by store.
func New(store *Store, cfg Config, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}
	if cfg.BatchPromptTTL <= 0 {
		cfg.BatchPromptTTL = 24 * time.Hour
	}
	if cfg.TaskPromptTTL <= 0 {
		cfg.TaskPromptTTL = time.Hour
	}

	t := &Tracker{
		store:    store,
		sessions: NewSessions(),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.prompts = NewPrompts(t.now)
	return t
}

// Store returns the underlying store.
func (t *Tracker) Store() *Store { return t.store }

// Sessions returns the setup session table.
func (t *Tracker) Sessions() *Sessions { return t.sessions }

// Prompts returns the open completion prompts.
func (t *Tracker) Prompts() *Prompts { return t.prompts }

// mutate applies fn through the store. Persistence failures are logged by the
// store and do not abort the operation.
func (t *Tracker) mutate(ctx context.Context, channelID string, create bool, fn func(*ChannelState) error) (*ChannelState, error) {
	st, err := t.store.Mutate(ctx, channelID, create, fn)
	if st != nil {
		return st, nil
	}
	return nil, err
}

func (t *Tracker) cmd(name string) string {
	return t.cfg.CommandPrefix + name
}

// StartSetup opens a setup session for the user in the channel.
func (t *Tracker) StartSetup(ctx context.Context, gw chat.Gateway, channelID, userID string) error {
	if _, err := t.mutate(ctx, channelID, true, func(st *ChannelState) error {
		st.SetupMode = true
		return nil
	}); err != nil {
		return fmt.Errorf("failed to start setup: %w", err)
	}
	t.sessions.Start(userID, channelID)
	t.logger.InfoContext(ctx, "Setup session started", "channel_id", channelID, "user_id", userID)

	return gw.SendCard(ctx, channelID, infoCard(
		"📋 Task Management Setup",
		fmt.Sprintf("Give the name of the task or say `%s` to continue.", t.cmd("save")),
	))
}

// Save moves the user's setup session from collecting tasks to asking for the
// day count. It is a no-op when the session already asks for days.
func (t *Tracker) Save(ctx context.Context, gw chat.Gateway, msg chat.Message) error {
	sess, ok := t.sessions.Get(msg.AuthorID)
	if !ok {
		return userError(ErrNoSession, "❌ Error",
			fmt.Sprintf("No setup in progress. Use `%s` to start.", t.cmd("setup")))
	}
	if sess.Stage != StageTasks {
		return nil
	}
	t.sessions.SetStage(msg.AuthorID, StageDays)

	return gw.SendCard(ctx, msg.ChannelID, infoCard(
		"📅 Task Duration",
		"How many days do you want to complete these tasks?",
	))
}

// HandleMessage feeds a non-command message into the author's setup session.
// It reports whether the message was consumed by a session.
func (t *Tracker) HandleMessage(ctx context.Context, gw chat.Gateway, msg chat.Message) (bool, error) {
	sess, ok := t.sessions.Get(msg.AuthorID)
	if !ok {
		return false, nil
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" || strings.HasPrefix(content, t.cfg.CommandPrefix) {
		return false, nil
	}

	switch sess.Stage {
	case StageTasks:
		var added Task
		if _, err := t.mutate(ctx, sess.ChannelID, true, func(st *ChannelState) error {
			added = st.AddTask(content)
			return nil
		}); err != nil {
			return true, fmt.Errorf("failed to add task: %w", err)
		}
		t.logger.DebugContext(ctx, "Task added during setup", "channel_id", sess.ChannelID, "task_id", added.ID)

		return true, gw.SendCard(ctx, msg.ChannelID, successCard(
			"✅ Task Added",
			fmt.Sprintf("Task `%s` added. Add another task or say `%s` to continue.", content, t.cmd("save")),
		))

	case StageDays:
		days, err := strconv.Atoi(content)
		if err != nil || days <= 0 {
			return true, userError(ErrInvalidDays, "❌ Invalid Input",
				"Please enter a valid number of days greater than 0.")
		}

		st, err := t.mutate(ctx, sess.ChannelID, true, func(st *ChannelState) error {
			st.Days = days
			st.SetupMode = false
			st.Redistribute(t.now())
			return nil
		})
		if err != nil {
			return true, fmt.Errorf("failed to finish setup: %w", err)
		}
		t.sessions.Remove(msg.AuthorID)
		t.logger.InfoContext(ctx, "Setup completed", "channel_id", sess.ChannelID, "days", days, "tasks", len(st.Tasks))

		if err := gw.SendCard(ctx, msg.ChannelID, successCard(
			"🎉 Setup Complete",
			fmt.Sprintf("Task management setup complete! You have %d days to complete all tasks.", days),
		)); err != nil {
			return true, err
		}
		return true, gw.SendCard(ctx, msg.ChannelID, TaskListCard(st, t.cfg.CommandPrefix))
	}

	return false, nil
}

// ShowTaskList posts the channel's task list.
func (t *Tracker) ShowTaskList(ctx context.Context, gw chat.Gateway, channelID string) error {
	st, _ := t.store.Get(channelID)
	return gw.SendCard(ctx, channelID, TaskListCard(st, t.cfg.CommandPrefix))
}

// AddTask appends a task to the channel and redistributes when days are set.
func (t *Tracker) AddTask(ctx context.Context, gw chat.Gateway, channelID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return userError(ErrEmptyTaskName, "❌ Error", fmt.Sprintf("Usage: `%s <task name>`", t.cmd("add")))
	}

	var added Task
	if _, err := t.mutate(ctx, channelID, true, func(st *ChannelState) error {
		added = st.AddTask(name)
		if st.Days > 0 {
			st.Redistribute(t.now())
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	t.logger.InfoContext(ctx, "Task added", "channel_id", channelID, "task_id", added.ID)

	return gw.SendCard(ctx, channelID, successCard("✅ Task Added", fmt.Sprintf("Task `%s` added.", name)))
}

// RemoveTask deletes a task from the channel and redistributes when days are set.
func (t *Tracker) RemoveTask(ctx context.Context, gw chat.Gateway, channelID string, taskID int) error {
	var removed Task
	_, err := t.mutate(ctx, channelID, false, func(st *ChannelState) error {
		var ok bool
		removed, ok = st.RemoveTask(taskID)
		if !ok {
			return userError(ErrTaskNotFound, "❌ Error", fmt.Sprintf("Task with ID %d not found.", taskID))
		}
		if st.Days > 0 {
			st.Redistribute(t.now())
		}
		return nil
	})
	if errors.Is(err, ErrChannelNotFound) {
		return userError(ErrChannelNotFound, "❌ Error", "No tasks found for this channel.")
	}
	if err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "Task removed", "channel_id", channelID, "task_id", taskID)

	return gw.SendCard(ctx, channelID, successCard(
		"🗑️ Task Removed",
		fmt.Sprintf("Task `%s` has been removed.", removed.Name),
	))
}

// Clear resets the channel and cancels its setup sessions and open prompts.
func (t *Tracker) Clear(ctx context.Context, gw chat.Gateway, channelID string) error {
	if !t.store.Exists(channelID) {
		return userError(ErrChannelNotFound, "❌ Error", "No tasks found for this channel.")
	}
	if err := t.store.Reset(ctx, channelID); err != nil {
		t.logger.WarnContext(ctx, "Channel cleared in memory only", "channel_id", channelID, "error", err)
	}
	sessions := t.sessions.RemoveChannel(channelID)
	t.prompts.DropChannel(channelID)
	t.logger.InfoContext(ctx, "Channel cleared", "channel_id", channelID, "sessions_cancelled", sessions)

	return gw.SendCard(ctx, channelID, successCard(
		"🧹 Tasks Cleared",
		"All tasks and settings have been cleared for this channel.",
	))
}

// SendMorningReminders posts today's tasks to every active channel.
func (t *Tracker) SendMorningReminders(ctx context.Context, gw chat.Gateway) error {
	var errs []error
	for _, id := range t.store.ChannelIDs() {
		st, ok := t.store.Get(id)
		if !ok || st.CurrentDay <= 0 {
			continue
		}
		if err := gw.SendCard(ctx, id, morningCard(st)); err != nil {
			t.logger.ErrorContext(ctx, "Failed to send morning reminder", "channel_id", id, "error", err)
			errs = append(errs, fmt.Errorf("channel %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// RunEveningCheck asks every active channel whether today's tasks were
// completed. Break days advance without asking.
func (t *Tracker) RunEveningCheck(ctx context.Context, gw chat.Gateway) error {
	var errs []error
	for _, id := range t.store.ChannelIDs() {
		st, ok := t.store.Get(id)
		if !ok || st.CurrentDay <= 0 {
			continue
		}
		if err := t.eveningCheck(ctx, gw, id, st); err != nil {
			t.logger.ErrorContext(ctx, "Evening check failed", "channel_id", id, "error", err)
			errs = append(errs, fmt.Errorf("channel %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) eveningCheck(ctx context.Context, gw chat.Gateway, channelID string, st *ChannelState) error {
	today := st.TodayTaskIDs()
	if len(today) > 0 {
		p := t.prompts.Open(PromptBatch, channelID, today, t.cfg.BatchPromptTTL)
		return gw.SendCard(ctx, channelID, completionCheckCard(st, p.ID))
	}

	if _, err := t.AdvanceDay(ctx, gw, channelID); err != nil {
		return err
	}
	return gw.SendCard(ctx, channelID, breakDayCompleteCard())
}
