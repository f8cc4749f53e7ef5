// Package ui is the terminal front end. It renders store snapshots through
// the views package and forwards every change to the store.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"donelog/internal/config"
	"donelog/internal/store"
	"donelog/internal/task"
	"donelog/internal/views"
)

type view int

const (
	viewList view = iota
	viewDashboard
	viewTimeline
)

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeReflect
	modeConfirmDelete
)

type (
	snapshotMsg []task.Task

	historyMsg struct {
		tasks []task.Task
		err   error
	}

	opMsg struct {
		status  string
		focusID string
		err     error
	}

	toggleMsg struct {
		res store.Toggle
		err error
	}

	reflectionMsg struct {
		task task.Task
		err  error
	}
)

type Model struct {
	ctx     context.Context
	store   *store.Store
	cfg     config.Config
	updates <-chan []task.Task
	now     func() time.Time

	tasks   []task.Task
	items   []views.Item
	history []task.Task
	cursor  int
	focusID string

	view       view
	mode       mode
	filter     views.Filter
	sort       views.SortMode
	rng        views.TimeRange
	input      textinput.Model
	form       *formState
	pendingDel *task.Task
	saving     bool
	status     string
	errMsg     string
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, st *store.Store, cfg config.Config) error {
	updates, unsubscribe := st.Subscribe()
	defer unsubscribe()

	m := newModel(ctx, st, cfg, updates, time.Now)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func newModel(ctx context.Context, st *store.Store, cfg config.Config, updates <-chan []task.Task, now func() time.Time) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = labelStyle

	// config.Validate has already rejected bad values; blanks fall back to defaults.
	filter, _ := views.ParseFilter(cfg.DefaultFilter)
	sort, _ := views.ParseSortMode(cfg.DefaultSort)
	rng, _ := views.ParseTimeRange(cfg.DefaultRange)

	m := Model{
		ctx:     ctx,
		store:   st,
		cfg:     cfg,
		updates: updates,
		now:     now,
		tasks:   st.Snapshot(),
		input:   ti,
		filter:  filter,
		sort:    sort,
		rng:     rng,
		status:  fmt.Sprintf("Press '%s' to add, %s to toggle, '%s' to delete.", cfg.Keys.Add, keyName(cfg.Keys.Toggle), cfg.Keys.Delete),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.updates)
}

func waitForSnapshot(ch <-chan []task.Task) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		tasks, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(tasks)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.tasks = msg
		m.refresh()
		cmds := []tea.Cmd{waitForSnapshot(m.updates)}
		if m.view == viewTimeline {
			cmds = append(cmds, m.loadHistory())
		}
		return m, tea.Batch(cmds...)
	case historyMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("load timeline failed: %v", msg.err)
			return m, nil
		}
		m.history = msg.tasks
		return m, nil
	case opMsg:
		return m.handleOp(msg), nil
	case toggleMsg:
		return m.handleToggle(msg)
	case reflectionMsg:
		return m.handleReflection(msg), nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.errMsg = ""
		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeReflect:
			return m.updateReflect(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		}
		return m.updateBrowse(msg.String())
	case tea.WindowSizeMsg:
		m.input.Width = max(20, msg.Width-10)
		return m, nil
	}
	if m.mode == modeForm || m.mode == modeReflect {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh rebuilds the visible list from the latest snapshot and keeps the
// cursor on the focused task when it is still visible.
func (m *Model) refresh() {
	m.items = views.List(m.tasks, m.filter, m.sort, m.now())
	if m.focusID != "" {
		for i, it := range m.items {
			if it.Task.ID == m.focusID {
				m.cursor = i
				break
			}
		}
		m.focusID = ""
	}
	m.cursor = clampCursor(m.cursor, len(m.items))
}

func (m Model) handleOp(msg opMsg) Model {
	if msg.err != nil {
		m.errMsg = msg.err.Error()
		return m
	}
	m.errMsg = ""
	m.status = msg.status
	if msg.focusID != "" {
		m.focusID = msg.focusID
		m.refresh()
	}
	if m.mode == modeForm {
		m.closeForm()
	}
	return m
}

func (m Model) updateBrowse(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.ListView:
		m.view = viewList
		return m, nil
	case k.Dashboard:
		m.view = viewDashboard
		return m, nil
	case k.Timeline:
		m.view = viewTimeline
		return m, m.loadHistory()
	}

	switch m.view {
	case viewList:
		return m.updateListView(key)
	case viewDashboard:
		if key == k.CycleRange {
			m.rng = views.Next(m.rng, views.TimeRanges)
			m.status = "Range: " + m.rng.Label()
		}
	}
	return m, nil
}

func (m Model) loadHistory() tea.Cmd {
	ctx, st := m.ctx, m.store
	return func() tea.Msg {
		tasks, err := st.History(ctx)
		return historyMsg{tasks: tasks, err: err}
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.view {
	case viewDashboard:
		b.WriteString(m.renderDashboard())
	case viewTimeline:
		b.WriteString(m.renderTimeline())
	default:
		b.WriteString(m.renderListView())
	}

	b.WriteString("\n\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render("Error: " + m.errMsg))
		b.WriteString(labelStyle.Render("  (any key to dismiss)"))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(m.renderHelp()))
	return b.String()
}

func (m Model) renderHeader() string {
	tabs := []string{"List", "Dashboard", "Timeline"}
	rendered := make([]string, len(tabs))
	for i, name := range tabs {
		style := tabStyle
		if view(i) == m.view {
			style = activeTabStyle
		}
		rendered[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("donelog "),
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		labelStyle.Render(fmt.Sprintf("  %d active", views.CountActive(m.tasks))),
	)
}

func (m Model) renderHelp() string {
	k := m.cfg.Keys
	switch m.mode {
	case modeForm:
		return "tab/shift+tab move • enter next/save • esc cancel"
	case modeReflect:
		return "enter save (blank skips) • esc close without reflection"
	case modeConfirmDelete:
		return "y delete • n keep"
	}
	nav := fmt.Sprintf("%s/%s/%s views • %s quit", k.ListView, k.Dashboard, k.Timeline, k.Quit)
	switch m.view {
	case viewList:
		return fmt.Sprintf("%s/%s move • %s add • %s edit • %s toggle • %s delete • %s filter • %s sort • %s",
			k.Up, k.Down, k.Add, k.Edit, keyName(k.Toggle), k.Delete, k.CycleFilter, k.CycleSort, nav)
	case viewDashboard:
		return fmt.Sprintf("%s range • %s", k.CycleRange, nav)
	default:
		return nav
	}
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
