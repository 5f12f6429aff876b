package tracker

import "time"

// Distribute assigns tasks to days 1..days in the given order. Every day label is
// present in the result. With fewer tasks than days, the first days get one task
// each and the rest are break days; otherwise tasks are split into consecutive
// runs whose lengths differ by at most one, longer runs first.
func Distribute(tasks []Task, days int) map[string][]int {
	out := make(map[string][]int, max(days, 0))
	if days <= 0 {
		return out
	}

	if len(tasks) < days {
		for day := 1; day <= days; day++ {
			if day <= len(tasks) {
				out[DayLabel(day)] = []int{tasks[day-1].ID}
			} else {
				out[DayLabel(day)] = []int{}
			}
		}
		return out
	}

	perDay := len(tasks) / days
	remainder := len(tasks) % days
	start := 0
	for day := 1; day <= days; day++ {
		end := start + perDay
		if remainder > 0 {
			end++
			remainder--
		}
		ids := make([]int, 0, end-start)
		for _, t := range tasks[start:end] {
			ids = append(ids, t.ID)
		}
		out[DayLabel(day)] = ids
		start = end
	}
	return out
}

// Redistribute spreads the incomplete tasks over the channel's days, restarts
// the schedule at day 1 and records today as the start date.
func (s *ChannelState) Redistribute(today time.Time) {
	if s.Days <= 0 {
		s.DailyTasks = map[string][]int{}
		s.CurrentDay = 0
		return
	}
	s.DailyTasks = Distribute(s.IncompleteTasks(), s.Days)
	s.CurrentDay = 1
	s.StartDate = today.Format(DateLayout)
}
