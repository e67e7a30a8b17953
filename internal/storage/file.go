// Package storage persists task and category snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nibzard/tasklist/internal/todo"
)

// FileStore keeps both sequences in one snapshot file. The encoding follows
// the extension: .yaml and .yml are YAML, anything else is JSON.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the snapshot. A missing file yields empty sequences.
func (s *FileStore) Load(ctx context.Context) ([]todo.Task, []todo.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f, err := todo.Load(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []todo.Task{}, []todo.Category{}, nil
		}
		return nil, nil, err
	}
	return nonNilTasks(f.Tasks), nonNilCategories(f.Categories), nil
}

// Save replaces the snapshot file.
func (s *FileStore) Save(ctx context.Context, tasks []todo.Task, categories []todo.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := todo.NewFile(tasks, categories).Save(s.Path); err != nil {
		return fmt.Errorf("save %s: %w", s.Path, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) String() string {
	return "file " + s.Path
}

func nonNilTasks(tasks []todo.Task) []todo.Task {
	if tasks == nil {
		return []todo.Task{}
	}
	return tasks
}

func nonNilCategories(categories []todo.Category) []todo.Category {
	if categories == nil {
		return []todo.Category{}
	}
	return categories
}
