// Package tracker implements the per-channel daily task tracker: task storage,
// distribution of tasks over days, the interactive setup flow and the evening
// completion flow.
package tracker

import (
	"fmt"
	"slices"
)

// DateLayout is the format of ChannelState.StartDate.
const DateLayout = "2006-01-02"

// Task is a single task tracked for a channel.
type Task struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// ChannelState is everything the tracker knows about one channel.
type ChannelState struct {
	Tasks     []Task `json:"tasks"`
	Days      int    `json:"days"`
	SetupMode bool   `json:"setup_mode"`
	// DailyTasks maps "day1".."dayN" to task ids. An empty list is a break day.
	DailyTasks map[string][]int `json:"daily_tasks"`
	CurrentDay int              `json:"current_day"`
	StartDate  string           `json:"start_date"`
	// NextTaskID is the id handed to the next task added to the channel.
	NextTaskID int `json:"next_task_id"`
}

// NewChannelState returns the empty default state of a channel.
func NewChannelState() *ChannelState {
	return &ChannelState{
		Tasks:      []Task{},
		DailyTasks: map[string][]int{},
		NextTaskID: 1,
	}
}

// DayLabel returns the DailyTasks key of the given day.
func DayLabel(day int) string {
	return fmt.Sprintf("day%d", day)
}

// Clone returns a deep copy of the state.
func (s *ChannelState) Clone() *ChannelState {
	c := *s
	c.Tasks = slices.Clone(s.Tasks)
	if c.Tasks == nil {
		c.Tasks = []Task{}
	}
	c.DailyTasks = make(map[string][]int, len(s.DailyTasks))
	for k, v := range s.DailyTasks {
		ids := slices.Clone(v)
		if ids == nil {
			ids = []int{}
		}
		c.DailyTasks[k] = ids
	}
	return &c
}

// normalize repairs fields missing from older or hand-edited store files.
func (s *ChannelState) normalize() {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.DailyTasks == nil {
		s.DailyTasks = map[string][]int{}
	}
	maxID := 0
	for _, t := range s.Tasks {
		maxID = max(maxID, t.ID)
	}
	if s.NextTaskID <= maxID {
		s.NextTaskID = maxID + 1
	}
}

// AddTask appends a new incomplete task and returns it.
func (s *ChannelState) AddTask(name string) Task {
	s.normalize()
	t := Task{ID: s.NextTaskID, Name: name}
	s.NextTaskID++
	s.Tasks = append(s.Tasks, t)
	return t
}

// RemoveTask deletes the task with the given id.
func (s *ChannelState) RemoveTask(id int) (Task, bool) {
	for i, t := range s.Tasks {
		if t.ID == id {
			s.Tasks = slices.Delete(s.Tasks, i, i+1)
			return t, true
		}
	}
	return Task{}, false
}

// Task returns a pointer to the task with the given id, or nil.
func (s *ChannelState) Task(id int) *Task {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i]
		}
	}
	return nil
}

// TodayTaskIDs returns the task ids assigned to the current day.
func (s *ChannelState) TodayTaskIDs() []int {
	if s.CurrentDay <= 0 {
		return nil
	}
	return s.DailyTasks[DayLabel(s.CurrentDay)]
}

// IncompleteTasks returns the tasks not yet completed, in stored order.
func (s *ChannelState) IncompleteTasks() []Task {
	var out []Task
	for _, t := range s.Tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// AllCompleted reports whether every stored task is completed. It is true for
// a channel without tasks.
func (s *ChannelState) AllCompleted() bool {
	for _, t := range s.Tasks {
		if !t.Completed {
			return false
		}
	}
	return true
}

// CompletionRate returns the percentage of completed tasks, or 0 without tasks.
func (s *ChannelState) CompletionRate() float64 {
	if len(s.Tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range s.Tasks {
		if t.Completed {
			done++
		}
	}
	return float64(done) / float64(len(s.Tasks)) * 100
}
