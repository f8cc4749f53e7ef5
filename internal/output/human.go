package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"donelog/internal/dateutil"
	"donelog/internal/task"
	"donelog/internal/views"
)

const timeFormat = "2006-01-02 15:04"

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct {
	now time.Time
}

// NewHumanFormatter creates a HumanFormatter that renders relative times
// against now.
func NewHumanFormatter(now time.Time) *HumanFormatter {
	return &HumanFormatter{now: now}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t task.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %s\n", checkbox(t.Completed), t.Title)
	fmt.Fprintf(&sb, "  ID:        %s\n", t.ID)
	fmt.Fprintf(&sb, "  Priority:  %s\n", t.Priority)
	fmt.Fprintf(&sb, "  Due:       %s\n", dateutil.RelativeLabel(t.DueDate, f.now))
	fmt.Fprintf(&sb, "  Created:   %s (%s)\n", t.CreatedAt.Format(timeFormat), f.ago(t.CreatedAt))
	if t.CompletedAt != nil {
		fmt.Fprintf(&sb, "  Completed: %s (%s)\n", t.CompletedAt.Format(timeFormat), f.ago(*t.CompletedAt))
	}
	if t.Reflection != nil {
		fmt.Fprintf(&sb, "  Reflection: %s\n", *t.Reflection)
	}
	if t.Description != nil {
		sb.WriteString("\n")
		sb.WriteString(*t.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatItems formats list rows as compact one-liners.
func (f *HumanFormatter) FormatItems(items []views.Item) string {
	if len(items) == 0 {
		return "No tasks found.\n"
	}
	var sb strings.Builder
	for _, it := range items {
		due := it.DueLabel
		if it.Overdue() {
			due = fmt.Sprintf("%d days overdue", it.DaysOverdue)
		}
		fmt.Fprintf(&sb, "%s %s %-40s %-16s %s\n",
			checkbox(it.Task.Completed), priorityMark(it.Task.Priority), it.Task.Title, due, shortID(it.Task.ID))
	}
	return sb.String()
}

// FormatMetrics formats the dashboard summary.
func (f *HumanFormatter) FormatMetrics(m views.Metrics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Range:        %s\n", m.Range.Label())
	fmt.Fprintf(&sb, "Tasks:        %d total, %d completed, %d active\n", m.Total, m.Completed, m.Active)
	fmt.Fprintf(&sb, "Completion:   %s%%\n", humanize.FtoaWithDigits(m.CompletionRate, 1))
	fmt.Fprintf(&sb, "Overdue:      %d (%s%%)\n", m.OverdueCount, humanize.FtoaWithDigits(m.OverdueRate, 1))
	fmt.Fprintf(&sb, "Priorities:   high %d, medium %d, low %d\n", m.Priorities.High, m.Priorities.Medium, m.Priorities.Low)
	if m.CompletedWithTimes > 0 {
		fmt.Fprintf(&sb, "Avg to done:  %s days\n", humanize.FtoaWithDigits(m.AvgCompletionDays, 1))
	}
	fmt.Fprintf(&sb, "Recent:       %d completions\n", m.RecentCompletions)
	fmt.Fprintf(&sb, "Productivity: %d/100\n", m.ProductivityScore)
	return sb.String()
}

// FormatTrend formats the completion series as one line per day.
func (f *HumanFormatter) FormatTrend(points []views.TrendPoint) string {
	var sb strings.Builder
	for _, p := range points {
		fmt.Fprintf(&sb, "%-6s %s %d/%d\n",
			dateutil.ShortDate(p.Date), strings.Repeat("#", p.Completed), p.Completed, p.Created)
	}
	return sb.String()
}

// FormatTimeline formats completed tasks grouped by day.
func (f *HumanFormatter) FormatTimeline(groups []views.DayGroup) string {
	if len(groups) == 0 {
		return "No completed tasks yet.\n"
	}
	var sb strings.Builder
	for i, g := range groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(dateutil.LongDate(g.Day))
		sb.WriteString("\n")
		for _, t := range g.Tasks {
			fmt.Fprintf(&sb, "  %s %s (created %s)\n", t.CompletedAt.Format("15:04"), t.Title, f.ago(t.CreatedAt))
			if t.Reflection != nil {
				fmt.Fprintf(&sb, "      %q\n", *t.Reflection)
			}
		}
	}
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

func (f *HumanFormatter) ago(t time.Time) string {
	return humanize.RelTime(t, f.now, "ago", "from now")
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func priorityMark(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return "!!!"
	case task.PriorityMedium:
		return "!! "
	case task.PriorityLow:
		return "!  "
	default:
		return "?  "
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
