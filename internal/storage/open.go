package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/todo"
)

// Store is a snapshot backend that holds resources until closed.
type Store interface {
	Load(ctx context.Context) ([]todo.Task, []todo.Category, error)
	Save(ctx context.Context, tasks []todo.Task, categories []todo.Category) error
	Close() error
}

// Open returns the backend selected by cfg.Storage. The redis backend is
// pinged before it is returned.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage {
	case config.StorageFile, "":
		return NewFileStore(cfg.DataFile), nil
	case config.StorageMemory:
		return NewMemoryStore(nil, nil), nil
	case config.StorageRedis:
		opts, err := redisOptions(cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := NewRedisStore(redis.NewClient(opts), cfg.Redis.Namespace)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func redisOptions(rc config.RedisConfig) (*redis.Options, error) {
	if rc.URL != "" {
		opts, err := redis.ParseURL(rc.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	}, nil
}
