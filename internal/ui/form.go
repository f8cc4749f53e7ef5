package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"donelog/internal/dateutil"
	"donelog/internal/task"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldCount
)

// formState backs the add and edit form. taskID is empty when adding.
type formState struct {
	taskID string
	values [fieldCount]string
	index  int
}

func formFields() []string {
	return []string{"title", "description", "priority (high/medium/low)", "due date (YYYY-MM-DD)"}
}

func (fs formState) currentLabel() string {
	return formFields()[fs.index]
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	fs := &formState{}
	fs.values[fieldPriority] = string(task.PriorityMedium)
	if t != nil {
		fs.taskID = t.ID
		fs.values[fieldTitle] = t.Title
		fs.values[fieldDescription] = task.StringValue(t.Description)
		fs.values[fieldPriority] = string(t.Priority)
		fs.values[fieldDue] = dateutil.FormatDate(t.DueDate)
	}
	m.form = fs
	m.mode = modeForm
	m.loadField()
	m.status = m.formPrompt()
	return m, m.input.Focus()
}

func (m *Model) loadField() {
	m.input.SetValue(m.form.values[m.form.index])
	m.input.Placeholder = m.form.currentLabel()
}

func (m *Model) closeForm() {
	m.form = nil
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeBrowse
		return m, nil
	}
	switch msg.String() {
	case m.cfg.Keys.Cancel, "esc":
		m.closeForm()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.form.values[m.form.index] = m.input.Value()
		m.form.index = wrapIndex(m.form.index+1, fieldCount)
		m.loadField()
		m.status = m.formPrompt()
		return m, nil
	case "shift+tab", "up":
		m.form.values[m.form.index] = m.input.Value()
		m.form.index = wrapIndex(m.form.index-1, fieldCount)
		m.loadField()
		m.status = m.formPrompt()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.values[m.form.index] = m.input.Value()
		if m.form.index >= fieldCount-1 {
			return m.saveForm()
		}
		m.form.index++
		m.loadField()
		m.status = m.formPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// saveForm parses the typed values and hands them to the store. Field rules
// such as a non-empty title are enforced there.
func (m Model) saveForm() (tea.Model, tea.Cmd) {
	fs := *m.form
	priority, err := task.ParsePriority(fs.values[fieldPriority])
	if err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	due, err := dateutil.ParseDate(fs.values[fieldDue], time.Local)
	if err != nil {
		m.errMsg = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}

	ctx, st := m.ctx, m.store
	if fs.taskID == "" {
		draft := task.Draft{
			Title:       fs.values[fieldTitle],
			Description: fs.values[fieldDescription],
			Priority:    priority,
			DueDate:     due,
		}
		return m, func() tea.Msg {
			t, err := st.Add(ctx, draft)
			if err != nil {
				return opMsg{err: fmt.Errorf("add failed: %w", err)}
			}
			return opMsg{status: fmt.Sprintf("Added %q", t.Title), focusID: t.ID}
		}
	}

	patch := fs.patch(priority, due)
	return m, func() tea.Msg {
		t, err := st.Update(ctx, fs.taskID, patch)
		if err != nil {
			return opMsg{err: fmt.Errorf("save failed: %w", err)}
		}
		return opMsg{status: fmt.Sprintf("Saved %q", t.Title), focusID: t.ID}
	}
}

func (fs formState) patch(priority task.Priority, due *time.Time) task.Patch {
	title := fs.values[fieldTitle]
	p := task.Patch{Title: &title, Priority: &priority}
	if desc := strings.TrimSpace(fs.values[fieldDescription]); desc != "" {
		p.Description = task.SetTo(desc)
	} else {
		p.Description = task.Clear[string]()
	}
	if due != nil {
		p.DueDate = task.SetTo(*due)
	} else {
		p.DueDate = task.Clear[time.Time]()
	}
	return p
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	verb := "Adding"
	if m.form.taskID != "" {
		verb = "Editing"
	}
	return fmt.Sprintf("%s task: %s (field %d of %d)", verb, m.form.currentLabel(), m.form.index+1, fieldCount)
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	for i, name := range formFields() {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := m.form.values[i]
		if i == m.form.index {
			val = m.input.View()
		} else if strings.TrimSpace(val) == "" {
			val = labelStyle.Render("(empty)")
		}
		b.WriteString(fmt.Sprintf("%s %-26s : %s\n", prefix, name, val))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
