package todo

import (
	"fmt"
	"slices"
	"strings"
)

// TaskStore owns the ordered sequence of tasks.
// The zero value is an empty store. It is not safe for concurrent use.
type TaskStore struct {
	tasks []Task
}

// NewTaskStore returns a store holding a copy of tasks.
func NewTaskStore(tasks []Task) *TaskStore {
	s := &TaskStore{}
	s.Reset(tasks)
	return s
}

// Reset replaces the contents with a copy of tasks.
func (s *TaskStore) Reset(tasks []Task) {
	s.tasks = append(make([]Task, 0, len(tasks)), tasks...)
	for i := range s.tasks {
		if s.tasks[i].Priority == "" {
			s.tasks[i].Priority = DefaultPriority
		}
	}
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the sequence.
func (s *TaskStore) Tasks() []Task {
	return append(make([]Task, 0, len(s.tasks)), s.tasks...)
}

// At returns the task at i.
func (s *TaskStore) At(i int) (Task, error) {
	if err := checkIndex("task", i, len(s.tasks)); err != nil {
		return Task{}, err
	}
	return s.tasks[i], nil
}

// prepare normalizes a task before it enters the store.
func prepare(t Task) (Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if t.Title == "" {
		return Task{}, &ValidationError{Path: "title", Err: fmt.Errorf("missing required field")}
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if !t.Priority.Valid() {
		return Task{}, &ValidationError{
			Path: "priority",
			Err:  fmt.Errorf("invalid priority %q, must be one of: High, Medium, Low", t.Priority),
		}
	}
	return t, nil
}

// Add appends a new, not yet done task and returns it as stored.
func (s *TaskStore) Add(t Task) (Task, error) {
	t, err := prepare(t)
	if err != nil {
		return Task{}, err
	}
	t.Done = false
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Toggle flips the done flag of the task at i.
func (s *TaskStore) Toggle(i int) (Task, error) {
	if err := checkIndex("task", i, len(s.tasks)); err != nil {
		return Task{}, err
	}
	s.tasks[i].Done = !s.tasks[i].Done
	return s.tasks[i], nil
}

// Replace swaps the task at i for t without moving it.
func (s *TaskStore) Replace(i int, t Task) error {
	if err := checkIndex("task", i, len(s.tasks)); err != nil {
		return err
	}
	t, err := prepare(t)
	if err != nil {
		return err
	}
	s.tasks[i] = t
	return nil
}

// Remove deletes the task at i. Later tasks shift down by one.
func (s *TaskStore) Remove(i int) (Task, error) {
	if err := checkIndex("task", i, len(s.tasks)); err != nil {
		return Task{}, err
	}
	removed := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return removed, nil
}

// SortByPriority orders tasks High, Medium, Low. Equal priorities keep
// their relative order.
func (s *TaskStore) SortByPriority() {
	slices.SortStableFunc(s.tasks, func(a, b Task) int {
		return ComparePriority(a.Priority, b.Priority)
	})
}

// ClearCategory unassigns name from every task that carries it and
// returns how many tasks changed.
func (s *TaskStore) ClearCategory(name string) int {
	cleared := 0
	for i := range s.tasks {
		if s.tasks[i].Category == name {
			s.tasks[i].Category = ""
			cleared++
		}
	}
	return cleared
}

// CategoryStore owns the ordered sequence of categories.
// Duplicate names are kept as given.
type CategoryStore struct {
	categories []Category
}

// NewCategoryStore returns a store holding a copy of categories.
func NewCategoryStore(categories []Category) *CategoryStore {
	s := &CategoryStore{}
	s.Reset(categories)
	return s
}

// Reset replaces the contents with a copy of categories.
func (s *CategoryStore) Reset(categories []Category) {
	s.categories = append(make([]Category, 0, len(categories)), categories...)
}

func (s *CategoryStore) Len() int {
	return len(s.categories)
}

// Categories returns a copy of the sequence.
func (s *CategoryStore) Categories() []Category {
	return append(make([]Category, 0, len(s.categories)), s.categories...)
}

// Names returns the category names in order.
func (s *CategoryStore) Names() []string {
	names := make([]string, len(s.categories))
	for i, c := range s.categories {
		names[i] = c.Name
	}
	return names
}

// Has reports whether any category is called name.
func (s *CategoryStore) Has(name string) bool {
	return slices.ContainsFunc(s.categories, func(c Category) bool {
		return c.Name == name
	})
}

func (s *CategoryStore) At(i int) (Category, error) {
	if err := checkIndex("category", i, len(s.categories)); err != nil {
		return Category{}, err
	}
	return s.categories[i], nil
}

// Add appends a category named name after trimming it.
func (s *CategoryStore) Add(name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, &ValidationError{Path: "name", Err: fmt.Errorf("missing required field")}
	}
	c := Category{Name: name}
	s.categories = append(s.categories, c)
	return c, nil
}

// Remove deletes the category at i and returns it. Tasks are not touched;
// see TaskStore.ClearCategory.
func (s *CategoryStore) Remove(i int) (Category, error) {
	if err := checkIndex("category", i, len(s.categories)); err != nil {
		return Category{}, err
	}
	removed := s.categories[i]
	s.categories = slices.Delete(s.categories, i, i+1)
	return removed, nil
}
