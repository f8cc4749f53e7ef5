package views

import (
	"math"
	"time"

	"donelog/internal/dateutil"
	"donelog/internal/task"
)

// TimeRange bounds the dashboard to recently created tasks.
type TimeRange string

const (
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	RangeAll TimeRange = "all"
)

// TimeRanges lists the ranges in cycling order.
var TimeRanges = []TimeRange{Range7d, Range30d, Range90d, RangeAll}

// TrendDays is the length of the completion trend series.
const TrendDays = 30

// ParseTimeRange maps user input to a TimeRange. Blank input means 30d.
func ParseTimeRange(s string) (TimeRange, error) {
	return parseOption("time range", s, Range30d, TimeRanges)
}

// Days returns the window length, or 0 for all.
func (r TimeRange) Days() int {
	switch r {
	case Range7d:
		return 7
	case Range30d:
		return 30
	case Range90d:
		return 90
	default:
		return 0
	}
}

// activityDays is the window used for recent completions. The all range
// reuses the widest bounded window.
func (r TimeRange) activityDays() int {
	if d := r.Days(); d > 0 {
		return d
	}
	return Range90d.Days()
}

// Label is the human name of the range.
func (r TimeRange) Label() string {
	if r == RangeAll {
		return "All Time"
	}
	return string(r)
}

// InRange keeps tasks created at or after now minus the range window.
func InRange(tasks []task.Task, r TimeRange, now time.Time) []task.Task {
	days := r.Days()
	if days == 0 {
		return append([]task.Task(nil), tasks...)
	}
	cutoff := now.AddDate(0, 0, -days)
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// PriorityCounts is the priority histogram.
type PriorityCounts struct {
	High   int `json:"high" yaml:"high"`
	Medium int `json:"medium" yaml:"medium"`
	Low    int `json:"low" yaml:"low"`
}

// Metrics summarizes a task set for the dashboard.
type Metrics struct {
	Range              TimeRange      `json:"range" yaml:"range"`
	Total              int            `json:"total" yaml:"total"`
	Completed          int            `json:"completed" yaml:"completed"`
	Active             int            `json:"active" yaml:"active"`
	CompletionRate     float64        `json:"completion_rate" yaml:"completion_rate"`
	OverdueCount       int            `json:"overdue_count" yaml:"overdue_count"`
	OverdueRate        float64        `json:"overdue_rate" yaml:"overdue_rate"`
	Priorities         PriorityCounts `json:"priorities" yaml:"priorities"`
	AvgCompletionDays  float64        `json:"avg_completion_days" yaml:"avg_completion_days"`
	CompletedWithTimes int            `json:"completed_with_times" yaml:"completed_with_times"`
	RecentCompletions  int            `json:"recent_completions" yaml:"recent_completions"`
	ActivityScore      float64        `json:"activity_score" yaml:"activity_score"`
	ProductivityScore  int            `json:"productivity_score" yaml:"productivity_score"`
}

// Compute derives dashboard metrics over the tasks created within r.
func Compute(tasks []task.Task, r TimeRange, now time.Time) Metrics {
	set := InRange(tasks, r, now)
	m := Metrics{Range: r, Total: len(set)}

	activityCutoff := now.AddDate(0, 0, -r.activityDays())
	var completionDays int
	for _, t := range set {
		if t.Completed {
			m.Completed++
		}
		if !t.Completed && dateutil.IsOverdue(t.DueDate, now) {
			m.OverdueCount++
		}
		switch t.Priority {
		case task.PriorityHigh:
			m.Priorities.High++
		case task.PriorityMedium:
			m.Priorities.Medium++
		case task.PriorityLow:
			m.Priorities.Low++
		}
		if t.CompletedAt == nil {
			continue
		}
		if t.Completed {
			m.CompletedWithTimes++
			completionDays += ceilDays(t.CompletedAt.Sub(t.CreatedAt))
		}
		if !t.CompletedAt.Before(activityCutoff) {
			m.RecentCompletions++
		}
	}
	m.Active = m.Total - m.Completed

	if m.Total > 0 {
		total := float64(m.Total)
		m.CompletionRate = float64(m.Completed) / total * 100
		m.OverdueRate = float64(m.OverdueCount) / total * 100
		m.ActivityScore = math.Min(float64(m.RecentCompletions)/total*100, 100)
	}
	if m.CompletedWithTimes > 0 {
		m.AvgCompletionDays = float64(completionDays) / float64(m.CompletedWithTimes)
	}
	m.ProductivityScore = int(math.Round(
		m.CompletionRate*0.4 + (100-m.OverdueRate)*0.3 + m.ActivityScore*0.3,
	))
	return m
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// TrendPoint counts completions and creations on one calendar day.
type TrendPoint struct {
	Date      time.Time `json:"date" yaml:"date"`
	Completed int       `json:"completed" yaml:"completed"`
	Created   int       `json:"created" yaml:"created"`
}

// Trend returns one point per day for the last TrendDays days, oldest first,
// counting only tasks created within r.
func Trend(tasks []task.Task, r TimeRange, now time.Time) []TrendPoint {
	tasks = InRange(tasks, r, now)
	today := dateutil.Midnight(now)
	points := make([]TrendPoint, 0, TrendDays)
	for i := TrendDays - 1; i >= 0; i-- {
		p := TrendPoint{Date: today.AddDate(0, 0, -i)}
		for _, t := range tasks {
			if t.CompletedAt != nil && dateutil.SameDay(*t.CompletedAt, p.Date) {
				p.Completed++
			}
			if dateutil.SameDay(t.CreatedAt, p.Date) {
				p.Created++
			}
		}
		points = append(points, p)
	}
	return points
}
