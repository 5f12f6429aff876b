package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/dayplanbot/internal/chat"
)

// HandleInteraction answers a completion prompt button. Payloads that do not
// belong to the tracker are ignored.
func (t *Tracker) HandleInteraction(ctx context.Context, gw chat.Gateway, in chat.Interaction) error {
	promptID, answer, ok := DecodeAction(in.Data)
	if !ok {
		return nil
	}

	p, err := t.prompts.Claim(promptID, answer)
	if errors.Is(err, ErrUnexpectedAnswer) {
		t.logger.WarnContext(ctx, "Unexpected prompt answer", "prompt_id", promptID, "answer", answer)
		return nil
	}
	if err != nil {
		t.logger.InfoContext(ctx, "Ignoring answer to expired prompt", "prompt_id", promptID, "user_id", in.UserID)
		return gw.SendText(ctx, in.ChannelID, "This prompt has expired.")
	}

	replyTo := in.ChannelID
	if replyTo == "" {
		replyTo = p.ChannelID
	}

	switch p.Kind {
	case PromptBatch:
		if answer == AnswerYes {
			return t.completeAll(ctx, gw, p, replyTo)
		}
		return t.startReview(ctx, gw, p, replyTo)
	case PromptTask:
		return t.markTask(ctx, gw, p, answer == AnswerYes, replyTo)
	default:
		return t.finishReview(ctx, gw, p, replyTo)
	}
}

func (t *Tracker) completeAll(ctx context.Context, gw chat.Gateway, p *Prompt, replyTo string) error {
	if _, err := t.mutate(ctx, p.ChannelID, false, func(st *ChannelState) error {
		for _, id := range p.TaskIDs {
			if task := st.Task(id); task != nil {
				task.Completed = true
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to mark tasks completed: %w", err)
	}

	advanced, err := t.AdvanceDay(ctx, gw, p.ChannelID)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to advance day", "channel_id", p.ChannelID, "error", err)
	}

	text := "Great job! All tasks marked as completed."
	if advanced {
		text += " Moving to the next day."
	}
	return gw.SendText(ctx, replyTo, text)
}

func (t *Tracker) startReview(ctx context.Context, gw chat.Gateway, p *Prompt, replyTo string) error {
	if err := gw.SendText(ctx, replyTo, "Let's mark the tasks you've completed."); err != nil {
		return err
	}

	st, ok := t.store.Get(p.ChannelID)
	if !ok {
		return nil
	}
	for _, id := range p.TaskIDs {
		task := st.Task(id)
		if task == nil {
			continue
		}
		tp := t.prompts.Open(PromptTask, p.ChannelID, []int{id}, t.cfg.TaskPromptTTL)
		if err := gw.SendCard(ctx, replyTo, taskQuestionCard(*task, tp.ID)); err != nil {
			return err
		}
	}

	done := t.prompts.Open(PromptDone, p.ChannelID, p.TaskIDs, t.cfg.TaskPromptTTL)
	return gw.SendCard(ctx, replyTo, doneCard(done.ID))
}

func (t *Tracker) markTask(ctx context.Context, gw chat.Gateway, p *Prompt, completed bool, replyTo string) error {
	if len(p.TaskIDs) != 1 {
		return gw.SendText(ctx, replyTo, "Task not found.")
	}
	taskID := p.TaskIDs[0]

	var name string
	_, err := t.mutate(ctx, p.ChannelID, false, func(st *ChannelState) error {
		task := st.Task(taskID)
		if task == nil {
			return ErrTaskNotFound
		}
		task.Completed = completed
		name = task.Name
		return nil
	})
	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrChannelNotFound) {
		return gw.SendText(ctx, replyTo, "Task not found.")
	}
	if err != nil {
		return err
	}

	if completed {
		return gw.SendText(ctx, replyTo, fmt.Sprintf("Task '%s' marked as completed.", name))
	}
	return gw.SendText(ctx, replyTo, fmt.Sprintf("Task '%s' marked as not completed.", name))
}

func (t *Tracker) finishReview(ctx context.Context, gw chat.Gateway, p *Prompt, replyTo string) error {
	advanced, err := t.AdvanceDay(ctx, gw, p.ChannelID)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to advance day", "channel_id", p.ChannelID, "error", err)
	}
	if advanced {
		return gw.SendText(ctx, replyTo, "Moving to the next day.")
	}
	return gw.SendText(ctx, replyTo, "All tasks for today have been reviewed.")
}

// AdvanceDay moves the channel to its next day unless it is already on the
// last one, then evaluates completion. It reports whether the day advanced.
func (t *Tracker) AdvanceDay(ctx context.Context, gw chat.Gateway, channelID string) (bool, error) {
	advanced := false
	_, err := t.mutate(ctx, channelID, false, func(st *ChannelState) error {
		if st.CurrentDay < st.Days {
			st.CurrentDay++
			advanced = true
		}
		return nil
	})
	if errors.Is(err, ErrChannelNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if advanced {
		t.logger.InfoContext(ctx, "Day advanced", "channel_id", channelID)
	}

	if _, err := t.CheckCompletion(ctx, gw, channelID); err != nil {
		return advanced, err
	}
	return advanced, nil
}

// CheckCompletion posts the completion report and resets the channel once all
// tasks are completed or the last day has been reached. It reports whether the
// report fired.
func (t *Tracker) CheckCompletion(ctx context.Context, gw chat.Gateway, channelID string) (bool, error) {
	st, ok := t.store.Get(channelID)
	if !ok {
		return false, nil
	}
	if !st.AllCompleted() && st.CurrentDay < st.Days {
		return false, nil
	}

	var errs []error
	if err := gw.SendCard(ctx, channelID, reportCard(st, t.now())); err != nil {
		errs = append(errs, fmt.Errorf("failed to send completion report: %w", err))
	}
	if err := t.store.Reset(ctx, channelID); err != nil {
		errs = append(errs, err)
	}
	t.prompts.DropChannel(channelID)

	t.logger.InfoContext(ctx, "Task period finished",
		"channel_id", channelID,
		"tasks", len(st.Tasks),
		"completion_rate", st.CompletionRate(),
		"day", st.CurrentDay,
		"days", st.Days)

	return true, errors.Join(errs...)
}
