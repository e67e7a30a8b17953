// Package board owns the task and category stores and is the only place
// they are mutated. Every successful mutation is saved through a Persister;
// destructive ones are confirmed through a Confirmer first.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/filter"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/todo"
)

// ErrBusy is returned when a mutation is attempted while another one,
// usually a pending confirmation, is still in progress.
var ErrBusy = errors.New("board: another operation is in progress")

// Persister stores and restores snapshots of both sequences.
// Load returns empty sequences when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]todo.Task, []todo.Category, error)
	Save(ctx context.Context, tasks []todo.Task, categories []todo.Category) error
}

// Confirmer asks the user a yes/no question. It blocks until the user
// answers; a cancelled context counts as no.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) bool {
	return f(ctx, title, message)
}

// AutoConfirm answers yes unless the context is done.
var AutoConfirm Confirmer = ConfirmFunc(func(ctx context.Context, _, _ string) bool {
	return ctx.Err() == nil
})

// Journal records completed mutations.
type Journal interface {
	Record(entry logging.Entry) error
}

// CategoryRemoval describes a completed category deletion.
type CategoryRemoval struct {
	Name    string
	Cleared int // tasks whose category was reset
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithJournal records every saved mutation to j.
func WithJournal(j Journal) Option {
	return func(b *Board) {
		b.journal = j
	}
}

// Board is the application state controller.
type Board struct {
	mu         sync.Mutex
	tasks      *todo.TaskStore
	categories *todo.CategoryStore

	store   Persister
	confirm Confirmer
	logger  *log.Logger
	journal Journal

	busy atomic.Bool
	now  func() time.Time
}

// New loads the current snapshot from store and returns a Board over it.
func New(ctx context.Context, store Persister, confirm Confirmer, opts ...Option) (*Board, error) {
	if store == nil {
		return nil, fmt.Errorf("board: nil persister")
	}
	if confirm == nil {
		return nil, fmt.Errorf("board: nil confirmer")
	}
	b := &Board{
		store:   store,
		confirm: confirm,
		logger:  log.New(io.Discard),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	tasks, categories, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	b.tasks = todo.NewTaskStore(tasks)
	b.categories = todo.NewCategoryStore(categories)
	b.logger.Debug("loaded snapshot", "tasks", len(tasks), "categories", len(categories))
	return b, nil
}

// begin claims the board for one mutation.
func (b *Board) begin() error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (b *Board) end() {
	b.busy.Store(false)
}

// Busy reports whether a mutation is in progress.
func (b *Board) Busy() bool {
	return b.busy.Load()
}

// commit saves the current state and journals entry. The caller must hold
// the busy flag but not the mutex.
func (b *Board) commit(ctx context.Context, entry logging.Entry) error {
	b.mu.Lock()
	tasks := b.tasks.Tasks()
	categories := b.categories.Categories()
	b.mu.Unlock()

	if err := b.store.Save(ctx, tasks, categories); err != nil {
		b.logger.Error("save failed", "op", entry.Op, "err", err)
		return fmt.Errorf("save snapshot: %w", err)
	}

	b.logger.Debug("saved", "op", entry.Op, "tasks", len(tasks), "categories", len(categories))
	if b.journal != nil {
		entry.Time = b.now().UTC()
		if err := b.journal.Record(entry); err != nil {
			b.logger.Warn("journal write failed", "op", entry.Op, "err", err)
		}
	}
	return nil
}

func (b *Board) skip(op string, err error) {
	b.logger.Debug("skipped", "op", op, "reason", err)
}

// AddTask appends draft as a new open task. A blank title or a category
// that does not exist skips the call: ok is false and nothing is saved.
func (b *Board) AddTask(ctx context.Context, draft todo.Task) (todo.Task, bool, error) {
	if err := b.begin(); err != nil {
		return todo.Task{}, false, err
	}
	defer b.end()

	b.mu.Lock()
	if draft.Category != "" && !b.categories.Has(draft.Category) {
		b.mu.Unlock()
		b.skip("add", unknownCategory(draft.Category))
		return todo.Task{}, false, nil
	}
	added, err := b.tasks.Add(draft)
	index := b.tasks.Len() - 1
	b.mu.Unlock()
	if err != nil {
		b.skip("add", err)
		return todo.Task{}, false, nil
	}

	return added, true, b.commit(ctx, logging.Entry{
		Op:       "add",
		Index:    index,
		Title:    added.Title,
		Category: added.Category,
	})
}

// ToggleDone flips the done flag of the task at i.
func (b *Board) ToggleDone(ctx context.Context, i int) (todo.Task, error) {
	if err := b.begin(); err != nil {
		return todo.Task{}, err
	}
	defer b.end()

	b.mu.Lock()
	t, err := b.tasks.Toggle(i)
	b.mu.Unlock()
	if err != nil {
		return todo.Task{}, err
	}

	op := "undone"
	if t.Done {
		op = "done"
	}
	return t, b.commit(ctx, logging.Entry{Op: op, Index: i, Title: t.Title})
}

// EditTask replaces the task at i with t, keeping its position.
// A blank title or unknown category skips the call with ok false.
func (b *Board) EditTask(ctx context.Context, i int, t todo.Task) (bool, error) {
	if err := b.begin(); err != nil {
		return false, err
	}
	defer b.end()

	b.mu.Lock()
	if _, err := b.tasks.At(i); err != nil {
		b.mu.Unlock()
		return false, err
	}
	if t.Category != "" && !b.categories.Has(t.Category) {
		b.mu.Unlock()
		b.skip("edit", unknownCategory(t.Category))
		return false, nil
	}
	err := b.tasks.Replace(i, t)
	edited, _ := b.tasks.At(i)
	b.mu.Unlock()
	if err != nil {
		b.skip("edit", err)
		return false, nil
	}

	return true, b.commit(ctx, logging.Entry{
		Op:       "edit",
		Index:    i,
		Title:    edited.Title,
		Category: edited.Category,
	})
}

// SetPriority changes the priority of the task at i. An invalid
// priority is skipped.
func (b *Board) SetPriority(ctx context.Context, i int, p todo.Priority) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	t, err := b.tasks.At(i)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if !p.Valid() {
		b.mu.Unlock()
		b.skip("priority", &todo.ValidationError{Path: "priority", Err: fmt.Errorf("invalid priority %q", p)})
		return nil
	}
	t.Priority = p
	err = b.tasks.Replace(i, t)
	b.mu.Unlock()
	if err != nil {
		b.skip("priority", err)
		return nil
	}

	return b.commit(ctx, logging.Entry{Op: "priority", Index: i, Title: t.Title})
}

// DeleteTask removes the task at i after the user confirms.
// A declined confirmation returns false with no error and saves nothing.
func (b *Board) DeleteTask(ctx context.Context, i int) (bool, error) {
	if err := b.begin(); err != nil {
		return false, err
	}
	defer b.end()

	b.mu.Lock()
	t, err := b.tasks.At(i)
	b.mu.Unlock()
	if err != nil {
		return false, err
	}

	if !b.confirm.Confirm(ctx, "Delete task", fmt.Sprintf("Delete task %q?", t.Title)) {
		b.logger.Debug("delete declined", "op", "rm", "index", i)
		return false, nil
	}

	b.mu.Lock()
	removed, err := b.tasks.Remove(i)
	b.mu.Unlock()
	if err != nil {
		return false, err
	}

	return true, b.commit(ctx, logging.Entry{Op: "rm", Index: i, Title: removed.Title})
}

// SortByPriority orders tasks High, Medium, Low, keeping the relative order
// of equal priorities.
func (b *Board) SortByPriority(ctx context.Context) error {
	if err := b.begin(); err != nil {
		return err
	}
	defer b.end()

	b.mu.Lock()
	b.tasks.SortByPriority()
	b.mu.Unlock()

	return b.commit(ctx, logging.Entry{Op: "sort", Index: -1})
}

// AddCategory appends a category. A blank name skips the call.
func (b *Board) AddCategory(ctx context.Context, name string) (todo.Category, bool, error) {
	if err := b.begin(); err != nil {
		return todo.Category{}, false, err
	}
	defer b.end()

	b.mu.Lock()
	c, err := b.categories.Add(name)
	index := b.categories.Len() - 1
	b.mu.Unlock()
	if err != nil {
		b.skip("cat-add", err)
		return todo.Category{}, false, nil
	}

	return c, true, b.commit(ctx, logging.Entry{Op: "cat-add", Index: index, Category: c.Name})
}

// DeleteCategory removes the category at i after the user confirms and
// unassigns it from every task carrying its name. Both changes are saved
// together.
func (b *Board) DeleteCategory(ctx context.Context, i int) (CategoryRemoval, bool, error) {
	if err := b.begin(); err != nil {
		return CategoryRemoval{}, false, err
	}
	defer b.end()

	b.mu.Lock()
	c, err := b.categories.At(i)
	b.mu.Unlock()
	if err != nil {
		return CategoryRemoval{}, false, err
	}

	msg := fmt.Sprintf("Delete category %q? Tasks in it become uncategorized.", c.Name)
	if !b.confirm.Confirm(ctx, "Delete category", msg) {
		b.logger.Debug("delete declined", "op", "cat-rm", "index", i)
		return CategoryRemoval{}, false, nil
	}

	// The name is captured before removal shifts the sequence.
	name := c.Name
	b.mu.Lock()
	if _, err := b.categories.Remove(i); err != nil {
		b.mu.Unlock()
		return CategoryRemoval{}, false, err
	}
	cleared := b.tasks.ClearCategory(name)
	b.mu.Unlock()

	removal := CategoryRemoval{Name: name, Cleared: cleared}
	return removal, true, b.commit(ctx, logging.Entry{
		Op:       "cat-rm",
		Index:    i,
		Category: name,
		Cleared:  cleared,
	})
}

// Tasks returns a copy of the task sequence.
func (b *Board) Tasks() []todo.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks.Tasks()
}

// Categories returns a copy of the category sequence.
func (b *Board) Categories() []todo.Category {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.categories.Categories()
}

// Task returns the task at i.
func (b *Board) Task(i int) (todo.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks.At(i)
}

// HasCategory reports whether a category called name exists.
func (b *Board) HasCategory(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.categories.Has(name)
}

// Filter returns the tasks matching c in store order.
func (b *Board) Filter(c filter.Criteria) []todo.Task {
	return filter.Apply(b.Tasks(), c)
}

// FilterIndices returns the store positions of the tasks matching c.
func (b *Board) FilterIndices(c filter.Criteria) []int {
	return filter.Indices(b.Tasks(), c)
}

func unknownCategory(name string) error {
	return &todo.ValidationError{Path: "category", Err: fmt.Errorf("unknown category %q", name)}
}
