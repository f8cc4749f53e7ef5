package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"donelog/internal/dateutil"
	"donelog/internal/views"
)

func (m Model) renderTimeline() string {
	groups := views.Timeline(m.history, time.Local)
	if len(groups) == 0 {
		return "Nothing completed yet."
	}
	now := m.now()
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(dateutil.LongDate(g.Day)))
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %d done", len(g.Tasks))))
		b.WriteString("\n")
		for _, t := range g.Tasks {
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				labelStyle.Render(t.CompletedAt.In(time.Local).Format("15:04")),
				priorityTag(t.Priority),
				t.Title))
			b.WriteString(labelStyle.Render(fmt.Sprintf("        created %s", humanize.RelTime(t.CreatedAt, now, "ago", "from now"))))
			b.WriteString("\n")
			if t.Reflection != nil {
				b.WriteString(fmt.Sprintf("        “%s”\n", *t.Reflection))
			}
		}
	}
	return b.String()
}
