package views

import (
	"slices"
	"time"

	"donelog/internal/dateutil"
	"donelog/internal/task"
)

// DayGroup holds the tasks completed on one calendar day.
type DayGroup struct {
	Day   time.Time   `json:"day" yaml:"day"`
	Tasks []task.Task `json:"tasks" yaml:"tasks"`
}

// Timeline groups completed tasks by completion day in loc, most recent day
// first. Tasks keep their input order within a day.
func Timeline(tasks []task.Task, loc *time.Location) []DayGroup {
	var groups []DayGroup
	index := map[string]int{}
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		day := dateutil.Midnight(t.CompletedAt.In(loc))
		key := dateutil.FormatDate(&day)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Day: day})
		}
		groups[i].Tasks = append(groups[i].Tasks, t)
	}
	slices.SortFunc(groups, func(a, b DayGroup) int {
		return b.Day.Compare(a.Day)
	})
	return groups
}
