package storage

import (
	"context"
	"sync"

	"github.com/nibzard/tasklist/internal/todo"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	tasks      []todo.Task
	categories []todo.Category
	saves      int
}

// NewMemoryStore returns a store whose first Load yields the given sequences.
func NewMemoryStore(tasks []todo.Task, categories []todo.Category) *MemoryStore {
	return &MemoryStore{
		tasks:      append([]todo.Task{}, tasks...),
		categories: append([]todo.Category{}, categories...),
	}
}

func (s *MemoryStore) Load(ctx context.Context) ([]todo.Task, []todo.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]todo.Task{}, s.tasks...), append([]todo.Category{}, s.categories...), nil
}

func (s *MemoryStore) Save(ctx context.Context, tasks []todo.Task, categories []todo.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]todo.Task{}, tasks...)
	s.categories = append([]todo.Category{}, categories...)
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) String() string {
	return "memory"
}
