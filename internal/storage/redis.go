package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nibzard/tasklist/internal/todo"
)

// RedisStore keeps the two sequences under two keys, <namespace>:todos and
// <namespace>:categories, each holding a JSON array of records.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore wraps client. An empty namespace defaults to "tasklist".
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if client == nil {
		panic("storage.NewRedisStore: client is nil")
	}
	if namespace == "" {
		namespace = "tasklist"
	}
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) tasksKey() string {
	return s.namespace + ":todos"
}

func (s *RedisStore) categoriesKey() string {
	return s.namespace + ":categories"
}

// Load reads both keys. Missing keys yield empty sequences.
func (s *RedisStore) Load(ctx context.Context) ([]todo.Task, []todo.Category, error) {
	tasks := []todo.Task{}
	if err := s.get(ctx, s.tasksKey(), &tasks); err != nil {
		return nil, nil, err
	}
	categories := []todo.Category{}
	if err := s.get(ctx, s.categoriesKey(), &categories); err != nil {
		return nil, nil, err
	}
	for i := range tasks {
		if tasks[i].Priority == "" {
			tasks[i].Priority = todo.DefaultPriority
		}
	}
	return nonNilTasks(tasks), nonNilCategories(categories), nil
}

func (s *RedisStore) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Save writes both keys in one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, tasks []todo.Task, categories []todo.Category) error {
	taskData, err := json.Marshal(nonNilTasks(tasks))
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	categoryData, err := json.Marshal(nonNilCategories(categories))
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tasksKey(), taskData, 0)
		pipe.Set(ctx, s.categoriesKey(), categoryData, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) String() string {
	return fmt.Sprintf("redis %s (%s)", s.client.Options().Addr, s.namespace)
}
