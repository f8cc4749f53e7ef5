package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"donelog/internal/task"
)

func (m Model) openReflection(t task.Task) (tea.Model, tea.Cmd) {
	m.mode = modeReflect
	m.input.SetValue("")
	m.input.Placeholder = "What did you learn? (optional)"
	m.status = fmt.Sprintf("Completing %q", t.Title)
	return m, m.input.Focus()
}

// updateReflect drives the completion dialog. Enter saves the typed text (a
// blank answer skips), Esc closes the dialog and still completes the task.
// Both are ignored while a save is in flight.
func (m Model) updateReflect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx, st := m.ctx, m.store
	switch msg.String() {
	case "esc", "enter":
		if m.saving {
			return m, nil
		}
		m.saving = true
	}
	switch msg.String() {
	case "esc":
		return m, func() tea.Msg {
			t, err := st.CancelReflection(ctx)
			return reflectionMsg{task: t, err: err}
		}
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, func() tea.Msg {
				t, err := st.SkipReflection(ctx)
				return reflectionMsg{task: t, err: err}
			}
		}
		return m, func() tea.Msg {
			t, err := st.SaveReflection(ctx, text)
			return reflectionMsg{task: t, err: err}
		}
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// handleReflection keeps the dialog open after a failed write so the user
// can retry.
func (m Model) handleReflection(msg reflectionMsg) Model {
	m.saving = false
	if msg.err != nil {
		m.errMsg = fmt.Sprintf("complete failed: %v", msg.err)
		if _, ok := m.store.PendingReflection(); !ok {
			m.mode = modeBrowse
			m.input.Blur()
		}
		return m
	}
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
	if msg.task.Reflection != nil {
		m.status = fmt.Sprintf("Completed %q with a reflection", msg.task.Title)
	} else {
		m.status = fmt.Sprintf("Completed %q", msg.task.Title)
	}
	return m
}

func (m Model) renderReflection() string {
	t, _ := m.store.PendingReflection()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Nice work on %q!\n", t.Title))
	b.WriteString(labelStyle.Render("Jot down a reflection before it is marked done."))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return boxStyle.Render(b.String())
}
