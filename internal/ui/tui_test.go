package ui

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist/internal/board"
	"github.com/nibzard/tasklist/internal/filter"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

func newTestModel(t *testing.T, tasks []todo.Task, categories []todo.Category) (*model, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(tasks, categories)
	confirm := NewModalConfirmer()
	b, err := board.New(context.Background(), store, confirm)
	if err != nil {
		t.Fatalf("board.New failed: %v", err)
	}
	return newModel(context.Background(), b, confirm), store
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func titles(tasks []todo.Task, indices []int) []string {
	var out []string
	for _, i := range indices {
		out = append(out, tasks[i].Title)
	}
	return out
}

func sampleTasks() []todo.Task {
	return []todo.Task{
		{Title: "Buy milk", Priority: todo.PriorityLow, Category: "Home"},
		{Title: "Write report", Priority: todo.PriorityHigh, Category: "Work"},
		{Title: "Buy stamps", Priority: todo.PriorityHigh},
	}
}

func sampleCategories() []todo.Category {
	return []todo.Category{{Name: "Work"}, {Name: "Home"}}
}

func TestTitleFilterInput(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	press(m, key("/"))
	if m.mode != modeFilter {
		t.Fatalf("mode: got %v, want filter", m.mode)
	}
	press(m, key("buy"))
	if got := titles(m.tasks, m.visible); !reflect.DeepEqual(got, []string{"Buy milk", "Buy stamps"}) {
		t.Errorf("visible: got %v", got)
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.mode != modeList || m.criteria.Title != "buy" {
		t.Errorf("enter should keep the filter: mode=%v criteria=%+v", m.mode, m.criteria)
	}

	press(m, key("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.criteria.Title != "" || len(m.visible) != 3 {
		t.Errorf("esc in the filter input should clear it: %+v", m.criteria)
	}
}

func TestFilterCycling(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	press(m, key("p"))
	if m.criteria.Priority != todo.PriorityHigh {
		t.Errorf("priority filter: got %q, want High", m.criteria.Priority)
	}
	if got := titles(m.tasks, m.visible); !reflect.DeepEqual(got, []string{"Write report", "Buy stamps"}) {
		t.Errorf("visible: got %v", got)
	}

	press(m, key("c"))
	if m.criteria.Category != "Work" {
		t.Errorf("category filter: got %q, want Work", m.criteria.Category)
	}
	if got := titles(m.tasks, m.visible); !reflect.DeepEqual(got, []string{"Write report"}) {
		t.Errorf("visible: got %v", got)
	}

	press(m, key("c"), key("c"))
	if m.criteria.Category != "" {
		t.Errorf("category filter should wrap to all, got %q", m.criteria.Category)
	}
	press(m, key("p"), key("p"), key("p"))
	if m.criteria.Priority != "" {
		t.Errorf("priority filter should wrap to all, got %q", m.criteria.Priority)
	}

	press(m, key("p"), tea.KeyMsg{Type: tea.KeyEsc})
	if !m.criteria.IsZero() {
		t.Errorf("esc should clear filters: %+v", m.criteria)
	}
}

func TestToggleAndPriority(t *testing.T) {
	m, store := newTestModel(t, sampleTasks(), sampleCategories())

	// Cursor on the second row of the High filter addresses store index 2.
	press(m, key("p"), key("j"), key("x"))
	if !m.tasks[2].Done {
		t.Errorf("Buy stamps should be done: %+v", m.tasks[2])
	}
	press(m, key("3"))
	if m.tasks[2].Priority != todo.PriorityLow {
		t.Errorf("priority: got %q, want Low", m.tasks[2].Priority)
	}
	if store.Saves() != 2 {
		t.Errorf("saves: got %d, want 2", store.Saves())
	}
}

func TestSortKey(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	press(m, key("s"))
	got := titles(m.tasks, m.visible)
	want := []string{"Write report", "Buy stamps", "Buy milk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
}

func TestAddTaskUsesActiveFilters(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	press(m, key("c"), key("a"), key("Call boss"), tea.KeyMsg{Type: tea.KeyEnter})
	last := m.tasks[len(m.tasks)-1]
	want := todo.Task{Title: "Call boss", Priority: todo.PriorityMedium, Category: "Work"}
	if last != want {
		t.Errorf("added: got %+v, want %+v", last, want)
	}
	if sel, _ := m.selected(); sel != len(m.tasks)-1 {
		t.Errorf("cursor should move to the new task, got %d", sel)
	}

	before := len(m.tasks)
	press(m, key("a"), tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.tasks) != before {
		t.Error("empty title should not add a task")
	}
}

func TestAddCategoryKey(t *testing.T) {
	m, _ := newTestModel(t, nil, nil)

	press(m, key("A"), key("Errands"), tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.categories) != 1 || m.categories[0].Name != "Errands" {
		t.Errorf("categories: got %+v", m.categories)
	}
}

// runDelete drives a delete through the modal dialog and answers it.
func runDelete(t *testing.T, m *model, deleteKey string, answer string) {
	t.Helper()
	_, cmd := m.Update(key(deleteKey))
	if cmd == nil {
		t.Fatal("expected a delete command")
	}
	if !m.busy {
		t.Error("model should be busy while the delete runs")
	}

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	press(m, m.confirm.wait()())
	if m.mode != modeConfirm || m.pending == nil {
		t.Fatalf("expected a pending confirmation, mode=%v", m.mode)
	}
	if !strings.Contains(m.View(), "Delete") {
		t.Error("the dialog should be rendered")
	}

	press(m, key(answer))

	select {
	case msg := <-result:
		press(m, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("delete command did not finish")
	}
	if m.busy {
		t.Error("busy should clear after the delete finishes")
	}
}

func TestDeleteTaskConfirmed(t *testing.T) {
	m, store := newTestModel(t, sampleTasks(), sampleCategories())

	press(m, key("j"))
	runDelete(t, m, "d", "y")

	if got := titles(m.tasks, m.visible); !reflect.DeepEqual(got, []string{"Buy milk", "Buy stamps"}) {
		t.Errorf("visible: got %v", got)
	}
	if !strings.Contains(m.status, "Write report") {
		t.Errorf("status: got %q", m.status)
	}
	if store.Saves() != 1 {
		t.Errorf("saves: got %d, want 1", store.Saves())
	}
}

func TestDeleteTaskDeclined(t *testing.T) {
	m, store := newTestModel(t, sampleTasks(), sampleCategories())

	runDelete(t, m, "d", "n")

	if len(m.tasks) != 3 {
		t.Errorf("tasks: got %d, want 3", len(m.tasks))
	}
	if m.status != "delete cancelled" {
		t.Errorf("status: got %q", m.status)
	}
	if store.Saves() != 0 {
		t.Errorf("saves: got %d, want 0", store.Saves())
	}
}

func TestDeleteFilteredCategory(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	// Without a category filter there is nothing to delete.
	if _, cmd := m.Update(key("D")); cmd != nil {
		t.Error("D without a category filter should do nothing")
	}

	press(m, key("c"), key("c"))
	if m.criteria.Category != "Home" {
		t.Fatalf("category filter: got %q, want Home", m.criteria.Category)
	}
	runDelete(t, m, "D", "y")

	if len(m.categories) != 1 || m.categories[0].Name != "Work" {
		t.Errorf("categories: got %+v", m.categories)
	}
	if m.tasks[0].Category != "" {
		t.Errorf("Buy milk should be uncategorized: %+v", m.tasks[0])
	}
	if m.criteria != (filter.Criteria{}) {
		t.Errorf("filter on the deleted category should reset: %+v", m.criteria)
	}
	if !strings.Contains(m.status, "1 task(s)") {
		t.Errorf("status: got %q", m.status)
	}
}

func TestMutationsRefusedWhileBusy(t *testing.T) {
	m, store := newTestModel(t, sampleTasks(), sampleCategories())
	m.busy = true

	press(m, key("x"), key("s"), key("1"))
	if m.status != "waiting for the pending confirmation" {
		t.Errorf("status: got %q", m.status)
	}
	if _, cmd := m.Update(key("d")); cmd != nil {
		t.Error("a second delete should not start")
	}
	if store.Saves() != 0 {
		t.Errorf("saves: got %d, want 0", store.Saves())
	}
}

func TestQuitDeclinesPendingConfirmation(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())

	_, cmd := m.Update(key("d"))
	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()
	press(m, m.confirm.wait()())

	if _, quit := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); quit == nil {
		t.Error("ctrl+c should quit")
	}
	select {
	case msg := <-result:
		if mm, ok := msg.(mutationMsg); !ok || mm.status != "delete cancelled" {
			t.Errorf("expected cancelled delete, got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delete command did not finish")
	}
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t, sampleTasks(), sampleCategories())
	press(m, key("x"))

	view := m.View()
	for _, want := range []string{"Tasklist", "3 tasks, 1 done", "[x]", "Write report", "@Work", "Press h for help"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	press(m, key("h"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help screen should be shown")
	}

	empty, _ := newTestModel(t, nil, nil)
	if !strings.Contains(empty.View(), "No tasks yet") {
		t.Error("empty board should say so")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&strings.Builder{}) {
		t.Error("a builder is not a terminal")
	}
}
