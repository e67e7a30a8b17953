// Package ui provides the interactive terminal front ends: a full-screen
// task board and the confirmers used by the CLI and the board.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist/internal/board"
	"github.com/nibzard/tasklist/internal/filter"
	"github.com/nibzard/tasklist/internal/todo"
)

type mode int

const (
	modeList mode = iota
	modeFilter
	modeAddTask
	modeAddCategory
	modeConfirm
)

// Run starts the full-screen board. b must use confirm as its Confirmer so
// that delete confirmations show up as dialogs.
func Run(ctx context.Context, b *board.Board, confirm *ModalConfirmer) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	program := tea.NewProgram(newModel(ctx, b, confirm), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if m, ok := finalModel.(*model); ok {
		m.cancelPending()
	}
	return nil
}

type model struct {
	ctx     context.Context
	board   *board.Board
	confirm *ModalConfirmer

	// Cached snapshot of the board. Refreshed after every mutation so
	// rendering never reads the board while a delete is running.
	tasks      []todo.Task
	categories []todo.Category
	visible    []int
	cursor     int
	criteria   filter.Criteria

	mode     mode
	input    textinput.Model
	pending  *confirmRequest
	busy     bool
	status   string
	err      error
	showHelp bool
}

// mutationMsg reports the end of a mutation run outside the update loop.
type mutationMsg struct {
	status string
	err    error
}

func newModel(ctx context.Context, b *board.Board, confirm *ModalConfirmer) *model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 50

	m := &model{
		ctx:     ctx,
		board:   b,
		confirm: confirm,
		input:   ti,
	}
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	return m.confirm.wait()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case confirmMsg:
		req := confirmRequest(msg)
		m.pending = &req
		m.mode = modeConfirm
		return m, m.confirm.wait()
	case mutationMsg:
		m.busy = false
		m.report(msg.err, msg.status)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelPending()
			return m, tea.Quit
		}
		switch m.mode {
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeFilter, modeAddTask, modeAddCategory:
			return m.updateInput(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.resolve(true)
	case "n", "N", "esc", "q":
		m.resolve(false)
	}
	return m, nil
}

func (m *model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeFilter {
			m.criteria.Title = ""
			m.applyFilter()
		}
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		current := m.mode
		m.closeInput()
		switch current {
		case modeAddTask:
			m.addTask(value)
		case modeAddCategory:
			m.addCategory(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFilter {
		m.criteria.Title = m.input.Value()
		m.applyFilter()
	}
	return m, cmd
}

func (m *model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.cancelPending()
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "/":
		cmd := m.openInput(modeFilter, "Filter: ", "title contains")
		m.input.SetValue(m.criteria.Title)
		return m, cmd
	case "p":
		m.criteria.Priority = nextPriority(m.criteria.Priority)
		m.applyFilter()
	case "c":
		m.criteria.Category = nextCategory(m.categories, m.criteria.Category)
		m.applyFilter()
	case "esc":
		m.criteria = filter.Criteria{}
		m.applyFilter()
	case "a":
		return m, m.openInput(modeAddTask, "New task: ", "title")
	case "A":
		return m, m.openInput(modeAddCategory, "New category: ", "name")
	case " ", "x":
		m.toggle()
	case "1":
		m.setPriority(todo.PriorityHigh)
	case "2":
		m.setPriority(todo.PriorityMedium)
	case "3":
		m.setPriority(todo.PriorityLow)
	case "s":
		m.sort()
	case "d":
		return m, m.deleteTask()
	case "D":
		return m, m.deleteCategory()
	}
	return m, nil
}

func (m *model) openInput(next mode, prompt, placeholder string) tea.Cmd {
	m.mode = next
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *model) closeInput() {
	m.input.Blur()
	m.input.SetValue("")
	m.mode = modeList
}

func (m *model) resolve(ok bool) {
	if m.pending != nil {
		m.pending.answer(ok)
	}
	m.pending = nil
	m.mode = modeList
}

func (m *model) cancelPending() {
	if m.pending != nil {
		m.pending.answer(false)
		m.pending = nil
	}
}

func (m *model) refresh() {
	m.tasks = m.board.Tasks()
	m.categories = m.board.Categories()
	if m.criteria.Category != "" && !hasCategory(m.categories, m.criteria.Category) {
		m.criteria.Category = ""
	}
	m.applyFilter()
}

func (m *model) applyFilter() {
	m.visible = filter.Indices(m.tasks, m.criteria)
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the store index under the cursor.
func (m *model) selected() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0, false
	}
	return m.visible[m.cursor], true
}

func (m *model) report(err error, status string) {
	if err != nil {
		m.err = err
		m.status = ""
		return
	}
	m.err = nil
	m.status = status
}

func (m *model) guardBusy() bool {
	if m.busy {
		m.report(nil, "waiting for the pending confirmation")
		return true
	}
	return false
}

func (m *model) toggle() {
	i, ok := m.selected()
	if !ok || m.guardBusy() {
		return
	}
	t, err := m.board.ToggleDone(m.ctx, i)
	state := "open"
	if t.Done {
		state = "done"
	}
	m.report(err, fmt.Sprintf("%q marked %s", t.Title, state))
	m.refresh()
}

func (m *model) setPriority(p todo.Priority) {
	i, ok := m.selected()
	if !ok || m.guardBusy() {
		return
	}
	err := m.board.SetPriority(m.ctx, i, p)
	m.report(err, fmt.Sprintf("priority set to %s", p))
	m.refresh()
}

func (m *model) sort() {
	if m.guardBusy() {
		return
	}
	err := m.board.SortByPriority(m.ctx)
	m.report(err, "sorted by priority")
	m.refresh()
}

// addTask creates a task in the active priority and category filters.
func (m *model) addTask(title string) {
	if m.guardBusy() {
		return
	}
	draft := todo.Task{Title: title, Priority: m.criteria.Priority, Category: m.criteria.Category}
	added, ok, err := m.board.AddTask(m.ctx, draft)
	switch {
	case err != nil:
		m.report(err, "")
	case !ok:
		m.report(nil, "nothing added")
	default:
		m.report(nil, fmt.Sprintf("added %q", added.Title))
	}
	m.refresh()
	if ok {
		m.cursor = len(m.visible) - 1
	}
}

func (m *model) addCategory(name string) {
	if m.guardBusy() {
		return
	}
	c, ok, err := m.board.AddCategory(m.ctx, name)
	switch {
	case err != nil:
		m.report(err, "")
	case !ok:
		m.report(nil, "nothing added")
	default:
		m.report(nil, fmt.Sprintf("added category %q", c.Name))
	}
	m.refresh()
}

// deleteTask starts the delete of the selected task. The board blocks on
// the confirmation, so the call runs as a command.
func (m *model) deleteTask() tea.Cmd {
	i, ok := m.selected()
	if !ok || m.guardBusy() {
		return nil
	}
	m.busy = true
	ctx, b := m.ctx, m.board
	title := m.tasks[i].Title
	return func() tea.Msg {
		deleted, err := b.DeleteTask(ctx, i)
		switch {
		case err != nil:
			return mutationMsg{err: err}
		case !deleted:
			return mutationMsg{status: "delete cancelled"}
		}
		return mutationMsg{status: fmt.Sprintf("deleted %q", title)}
	}
}

// deleteCategory deletes the category selected as the category filter.
func (m *model) deleteCategory() tea.Cmd {
	if m.criteria.Category == "" {
		m.report(nil, "choose a category with c first")
		return nil
	}
	i := categoryIndex(m.categories, m.criteria.Category)
	if i < 0 || m.guardBusy() {
		return nil
	}
	m.busy = true
	ctx, b := m.ctx, m.board
	return func() tea.Msg {
		removal, deleted, err := b.DeleteCategory(ctx, i)
		switch {
		case err != nil:
			return mutationMsg{err: err}
		case !deleted:
			return mutationMsg{status: "delete cancelled"}
		}
		return mutationMsg{status: fmt.Sprintf("deleted category %q, %d task(s) uncategorized", removal.Name, removal.Cleared)}
	}
}

func (m *model) View() string {
	var b strings.Builder
	writeTitle(&b, m.tasks)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	writeFilters(&b, m.criteria)
	writeTasks(&b, m.tasks, m.visible, m.cursor)

	switch m.mode {
	case modeConfirm:
		if m.pending != nil {
			writeModal(&b, m.pending)
		}
	case modeFilter, modeAddTask, modeAddCategory:
		b.WriteString(inputStyle.Render(m.input.View()) + "\n")
	}

	writeStatus(&b, m.status, m.err)
	writeFooter(&b)
	return b.String()
}

func writeTitle(b *strings.Builder, tasks []todo.Task) {
	done := 0
	for _, t := range tasks {
		if t.Done {
			done++
		}
	}
	b.WriteString(titleStyle.Render("Tasklist"))
	b.WriteString(fmt.Sprintf("  %d tasks, %d done\n\n", len(tasks), done))
}

func writeFilters(b *strings.Builder, c filter.Criteria) {
	if c.IsZero() {
		return
	}
	b.WriteString(helpStyle.Render("Showing "+c.String()+" (esc to clear)") + "\n\n")
}

func writeTasks(b *strings.Builder, tasks []todo.Task, visible []int, cursor int) {
	if len(tasks) == 0 {
		b.WriteString(rowStyle.Render("No tasks yet. Press a to add one.") + "\n\n")
		return
	}
	if len(visible) == 0 {
		b.WriteString(rowStyle.Render("No tasks match the filter.") + "\n\n")
		return
	}
	for row, i := range visible {
		line := formatTask(i, tasks[i])
		if row == cursor {
			b.WriteString(selectedRowStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString(rowStyle.Render("  "+line) + "\n")
	}
	b.WriteString("\n")
}

func formatTask(i int, t todo.Task) string {
	box := "[ ]"
	title := t.Title
	if t.Done {
		box = "[x]"
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %2d. %s %s", box, i+1, priorityStyle(t.Priority).Render(fmt.Sprintf("%-6s", t.Priority)), title)
	if t.Category != "" {
		line += " " + categoryStyle.Render("@"+t.Category)
	}
	return line
}

func writeModal(b *strings.Builder, req *confirmRequest) {
	body := req.title + "\n\n" + req.message + "\n\n" + helpStyle.Render("y confirm | n cancel")
	b.WriteString(modalStyle.Render(body) + "\n")
}

func writeStatus(b *strings.Builder, status string, err error) {
	if err != nil {
		b.WriteString(errorStyle.Render("Error: "+err.Error()) + "\n\n")
		return
	}
	if status != "" {
		b.WriteString(status + "\n\n")
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  j/k, arrows  Move\n")
	b.WriteString("  x, space     Toggle done\n")
	b.WriteString("  1 2 3        Set priority High, Medium, Low\n")
	b.WriteString("  s            Sort by priority\n")
	b.WriteString("  a            Add task (uses the active filters)\n")
	b.WriteString("  A            Add category\n")
	b.WriteString("  d            Delete task\n")
	b.WriteString("  D            Delete the filtered category\n")
	b.WriteString("  /            Filter by title\n")
	b.WriteString("  p            Cycle priority filter\n")
	b.WriteString("  c            Cycle category filter\n")
	b.WriteString("  esc          Clear filters\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString(helpStyle.Render("Press h for help | q to quit") + "\n")
}

func nextPriority(p todo.Priority) todo.Priority {
	levels := todo.Priorities()
	for i, level := range levels {
		if level != p {
			continue
		}
		if i+1 < len(levels) {
			return levels[i+1]
		}
		return ""
	}
	return levels[0]
}

func nextCategory(categories []todo.Category, current string) string {
	var names []string
	seen := make(map[string]bool)
	for _, c := range categories {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	if current == "" {
		return names[0]
	}
	for i, name := range names {
		if name == current && i+1 < len(names) {
			return names[i+1]
		}
	}
	return ""
}

func hasCategory(categories []todo.Category, name string) bool {
	return categoryIndex(categories, name) >= 0
}

func categoryIndex(categories []todo.Category, name string) int {
	for i, c := range categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
