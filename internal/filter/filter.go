// Package filter selects tasks by title, priority and category.
package filter

import (
	"fmt"
	"strings"

	"github.com/nibzard/tasklist/internal/todo"
)

// Criteria holds the optional constraints of a filter.
// A zero field matches every task.
type Criteria struct {
	// Title matches tasks whose title contains it, ignoring case.
	Title string
	// Priority matches tasks with exactly this priority.
	Priority todo.Priority
	// Category matches tasks assigned to exactly this category name.
	Category string
}

// IsZero reports whether c matches every task.
func (c Criteria) IsZero() bool {
	return c.Title == "" && c.Priority == "" && c.Category == ""
}

// Match reports whether t passes every constraint set in c.
func (c Criteria) Match(t todo.Task) bool {
	if c.Title != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(c.Title)) {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	if c.Category != "" && t.Category != c.Category {
		return false
	}
	return true
}

func (c Criteria) String() string {
	if c.IsZero() {
		return "all tasks"
	}
	var parts []string
	if c.Title != "" {
		parts = append(parts, fmt.Sprintf("title~%q", c.Title))
	}
	if c.Priority != "" {
		parts = append(parts, "priority="+string(c.Priority))
	}
	if c.Category != "" {
		parts = append(parts, fmt.Sprintf("category=%q", c.Category))
	}
	return strings.Join(parts, " ")
}

// Apply returns the tasks matching c in input order.
// The result is a new slice; tasks is not modified.
func Apply(tasks []todo.Task, c Criteria) []todo.Task {
	out := make([]todo.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Indices returns the positions in tasks of the tasks matching c.
func Indices(tasks []todo.Task, c Criteria) []int {
	out := make([]int, 0, len(tasks))
	for i, t := range tasks {
		if c.Match(t) {
			out = append(out, i)
		}
	}
	return out
}
