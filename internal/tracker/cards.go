package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgard/dayplanbot/internal/chat"
)

const breakDayText = "Break day! No tasks for today."

func statusMark(t Task) string {
	if t.Completed {
		return "✅"
	}
	return "❌"
}

func taskLine(t Task) string {
	return fmt.Sprintf("%d. %s %s", t.ID, statusMark(t), t.Name)
}

// taskLines lists the given ids that still exist in the state, one per line.
func taskLines(st *ChannelState, ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if t := st.Task(id); t != nil {
			b.WriteString(taskLine(*t))
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func dayProgress(st *ChannelState) string {
	return fmt.Sprintf("Day %d/%d", st.CurrentDay, st.Days)
}

func infoCard(title, description string) chat.Card {
	return chat.Card{Title: title, Description: description, Color: chat.ColorBlue}
}

func successCard(title, description string) chat.Card {
	return chat.Card{Title: title, Description: description, Color: chat.ColorGreen}
}

// ErrorCard renders an error for the user. UserErrors keep their title and
// message; anything else becomes a generic failure notice.
func ErrorCard(err error) chat.Card {
	var ue *UserError
	if errors.As(err, &ue) {
		title := ue.Title
		if title == "" {
			title = "❌ Error"
		}
		return chat.Card{Title: title, Description: ue.Message, Color: chat.ColorRed}
	}
	return chat.Card{
		Title:       "❌ Error",
		Description: "Something went wrong. Please try again later.",
		Color:       chat.ColorRed,
	}
}

// TaskListCard shows every task of the channel plus today's assignment.
func TaskListCard(st *ChannelState, prefix string) chat.Card {
	if st == nil || len(st.Tasks) == 0 {
		return infoCard("📋 Task List", fmt.Sprintf("No tasks available. Use `%sadd` to add tasks.", prefix))
	}

	card := infoCard("📋 Task List", dayProgress(st))
	all := make([]string, 0, len(st.Tasks))
	for _, t := range st.Tasks {
		all = append(all, taskLine(t))
	}
	card.AddField("Tasks", strings.Join(all, "\n"), false)

	if len(st.DailyTasks) > 0 && st.CurrentDay > 0 {
		if today := taskLines(st, st.TodayTaskIDs()); today != "" {
			card.AddField("Today's Tasks", today, false)
		} else {
			card.AddField("Today's Tasks", breakDayText, false)
		}
	}
	return card
}

func morningCard(st *ChannelState) chat.Card {
	card := infoCard("📅 Today's Tasks", dayProgress(st))
	if today := taskLines(st, st.TodayTaskIDs()); today != "" {
		card.AddField("Tasks", today, false)
	} else {
		card.AddField("Tasks", breakDayText, false)
	}
	return card
}

func completionCheckCard(st *ChannelState, promptID string) chat.Card {
	card := chat.Card{
		Title:       "✅ Task Completion Check",
		Description: "Did you complete today's tasks?",
		Color:       chat.ColorGold,
	}
	card.AddField("Today's Tasks", taskLines(st, st.TodayTaskIDs()), false)
	card.Buttons = [][]chat.Button{yesNoRow(promptID)}
	return card
}

func yesNoRow(promptID string) []chat.Button {
	return []chat.Button{
		{Label: "Yes", Style: chat.ButtonSuccess, Data: EncodeAction(promptID, AnswerYes)},
		{Label: "No", Style: chat.ButtonDanger, Data: EncodeAction(promptID, AnswerNo)},
	}
}

func taskQuestionCard(t Task, promptID string) chat.Card {
	return chat.Card{
		Description: fmt.Sprintf("Did you complete: %s?", t.Name),
		Color:       chat.ColorGold,
		Buttons:     [][]chat.Button{yesNoRow(promptID)},
	}
}

func doneCard(promptID string) chat.Card {
	return chat.Card{
		Description: "Click 'Done' when you've marked all tasks.",
		Color:       chat.ColorBlue,
		Buttons: [][]chat.Button{{
			{Label: "Done", Style: chat.ButtonPrimary, Data: EncodeAction(promptID, AnswerDone)},
		}},
	}
}

func breakDayCompleteCard() chat.Card {
	return successCard("😌 Break Day Complete", "Today was a break day. Moving to the next day.")
}

func reportCard(st *ChannelState, today time.Time) chat.Card {
	start := st.StartDate
	if start == "" {
		start = "Unknown"
	}
	card := chat.Card{
		Title:       "📊 Task Completion Report",
		Description: fmt.Sprintf("Period: %s to %s", start, today.Format(DateLayout)),
		Color:       chat.ColorPurple,
	}

	var completed, incomplete []string
	for _, t := range st.Tasks {
		line := fmt.Sprintf("%d. %s", t.ID, t.Name)
		if t.Completed {
			completed = append(completed, line)
		} else {
			incomplete = append(incomplete, line)
		}
	}
	card.AddField("✅ Completed Tasks", joinOrNone(completed), false)
	card.AddField("❌ Incompleted Tasks", joinOrNone(incomplete), false)
	card.AddField("📈 Completion Rate", fmt.Sprintf("%.1f%%", st.CompletionRate()), false)
	return card
}

func joinOrNone(lines []string) string {
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}
