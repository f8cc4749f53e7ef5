package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"donelog/internal/dateutil"
	"donelog/internal/task"
	"donelog/internal/views"
)

func (m Model) updateListView(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.items))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.items))
	case k.CycleFilter:
		m.filter = views.Next(m.filter, views.Filters)
		m.refresh()
		m.status = "Filter: " + string(m.filter)
	case k.CycleSort:
		m.sort = views.Next(m.sort, views.SortModes)
		m.refresh()
		m.status = "Sort: " + string(m.sort)
	case k.Add:
		return m.startForm(nil)
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startForm(&t)
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggle(t.ID, !t.Completed)
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete %q? y/n", t.Title)
	}
	return m, nil
}

func (m Model) selected() (task.Task, bool) {
	if len(m.items) == 0 {
		return task.Task{}, false
	}
	return m.items[clampCursor(m.cursor, len(m.items))].Task, true
}

func (m Model) toggle(id string, target bool) tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		res, err := st.ToggleComplete(ctx, id, target)
		return toggleMsg{res: res, err: err}
	}
}

func (m Model) handleToggle(msg toggleMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.errMsg = fmt.Sprintf("toggle failed: %v", msg.err)
		return m, nil
	}
	if msg.res.Pending {
		return m.openReflection(msg.res.Task)
	}
	if msg.res.Task.Completed {
		m.status = "Already completed"
	} else {
		m.status = fmt.Sprintf("Reopened %q", msg.res.Task.Title)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.status = "Delete cancelled"
		m.mode = modeBrowse
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		m.mode = modeBrowse
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		ctx, st, t := m.ctx, m.store, *m.pendingDel
		m.pendingDel = nil
		return m, func() tea.Msg {
			if err := st.Delete(ctx, t.ID); err != nil {
				return opMsg{err: fmt.Errorf("delete failed: %w", err)}
			}
			return opMsg{status: fmt.Sprintf("Deleted %q", t.Title)}
		}
	default:
		return m, nil
	}
}

func (m Model) renderListView() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("filter: %s • sort: %s", m.filter, m.sort)))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		if len(m.tasks) == 0 {
			b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		} else {
			b.WriteString("No tasks match this filter.")
		}
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n")
	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
	case modeReflect:
		b.WriteString(m.renderReflection())
	default:
		b.WriteString(m.renderDetailPanel())
	}
	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, it := range m.items {
		cursor := " "
		if m.cursor == i && m.mode == modeBrowse {
			cursor = ">"
		}
		checkbox := "[ ]"
		if it.Task.Completed {
			checkbox = "[x]"
		}

		title := it.Task.Title
		if it.Task.Completed {
			title = doneStyle.Render(title)
		}
		due := it.DueLabel
		if it.Overdue() {
			due = overdueStyle.Render(fmt.Sprintf("%d days overdue", it.DaysOverdue))
		} else {
			due = labelStyle.Render(due)
		}

		line := fmt.Sprintf("%s %s %s %s  %s", cursor, checkbox, priorityTag(it.Task.Priority), title, due)
		if m.cursor == i && m.mode == modeBrowse {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetailPanel() string {
	t, ok := m.selected()
	if !ok {
		return "No task selected"
	}
	today := m.now()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Status      : %s\n", humanDone(t.Completed)))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", t.Priority))
	b.WriteString(fmt.Sprintf("Due         : %s\n", dateutil.RelativeLabel(t.DueDate, today)))
	b.WriteString(fmt.Sprintf("Description : %s\n", emptyPlaceholder(task.StringValue(t.Description))))
	if t.CompletedAt != nil {
		b.WriteString(fmt.Sprintf("Completed   : %s\n", dateutil.LongDate(*t.CompletedAt)))
	}
	if t.Reflection != nil {
		b.WriteString(fmt.Sprintf("Reflection  : %s\n", *t.Reflection))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func priorityTag(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return highStyle.Render("high  ")
	case task.PriorityLow:
		return lowStyle.Render("low   ")
	default:
		return mediumStyle.Render("medium")
	}
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
