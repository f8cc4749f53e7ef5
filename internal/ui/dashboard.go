package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"donelog/internal/dateutil"
	"donelog/internal/views"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func (m Model) renderDashboard() string {
	now := m.now()
	mt := views.Compute(m.tasks, m.rng, now)

	summary := []string{
		fmt.Sprintf("Range         %s", mt.Range.Label()),
		fmt.Sprintf("Tasks         %d (%d done, %d active)", mt.Total, mt.Completed, mt.Active),
		fmt.Sprintf("Completion    %s%%", humanize.FtoaWithDigits(mt.CompletionRate, 1)),
		fmt.Sprintf("Overdue       %d (%s%%)", mt.OverdueCount, humanize.FtoaWithDigits(mt.OverdueRate, 1)),
		fmt.Sprintf("Avg to done   %s", avgDays(mt)),
		fmt.Sprintf("Recent done   %d", mt.RecentCompletions),
		fmt.Sprintf("Productivity  %s", scoreBar(mt.ProductivityScore)),
	}
	left := boxStyle.Render(strings.Join(summary, "\n"))
	right := boxStyle.Render(renderPriorities(mt.Priorities))

	trend := views.Trend(m.tasks, m.rng, now)
	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Completions, last %d days", views.TrendDays)))
	b.WriteString("\n")
	b.WriteString(sparkline(trend))
	b.WriteString("\n")
	if len(trend) > 0 {
		first, last := dateutil.ShortDate(trend[0].Date), dateutil.ShortDate(trend[len(trend)-1].Date)
		b.WriteString(labelStyle.Render(first + strings.Repeat(" ", max(1, len(trend)-len(first)-len(last))) + last))
	}
	return b.String()
}

func avgDays(mt views.Metrics) string {
	if mt.CompletedWithTimes == 0 {
		return "n/a"
	}
	return humanize.FtoaWithDigits(mt.AvgCompletionDays, 1) + " days"
}

func scoreBar(score int) string {
	const width = 20
	filled := min(max(score, 0), 100) * width / 100
	return highStyle.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %d", score)
}

func renderPriorities(p views.PriorityCounts) string {
	rows := []struct {
		name  string
		count int
		style lipgloss.Style
	}{
		{"high", p.High, highStyle},
		{"medium", p.Medium, mediumStyle},
		{"low", p.Low, lowStyle},
	}
	top := max(p.High, p.Medium, p.Low, 1)
	var b strings.Builder
	b.WriteString("Priorities\n")
	for _, r := range rows {
		bar := strings.Repeat("■", r.count*16/top)
		b.WriteString(fmt.Sprintf("%-7s %s %d\n", r.name, r.style.Render(bar), r.count))
	}
	return strings.TrimRight(b.String(), "\n")
}

func sparkline(points []views.TrendPoint) string {
	top := 0
	for _, p := range points {
		top = max(top, p.Completed)
	}
	var b strings.Builder
	for _, p := range points {
		if top == 0 || p.Completed == 0 {
			b.WriteRune(sparkBlocks[0])
			continue
		}
		idx := p.Completed * (len(sparkBlocks) - 1) / top
		b.WriteRune(sparkBlocks[idx])
	}
	return lowStyle.Render(b.String())
}
