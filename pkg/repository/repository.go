package repository

import (
	"context"
	"time"

	svcerror "pedidos-saga/pkg/error"
	"pedidos-saga/pkg/utils"
)

type IDExtractor[T any] func(T) string

type Repository[T any] interface {
	Load(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, entity T) error
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
}

type RepositoryType string

const (
	RepositoryMemory RepositoryType = "memory"
	RepositoryRedis  RepositoryType = "cache"
)

func NewRepository[T any](ctx context.Context, repoType RepositoryType, prefix string, idExtractor IDExtractor[T]) (Repository[T], error) {
	switch repoType {
	case RepositoryMemory:
		return NewMemoryRepo(idExtractor), nil
	case RepositoryRedis:
		redisConf := RedisConfig{
			Address:  utils.GetEnv("REDIS_CLIENT_ADDRESS", "redis:6379"),
			Password: utils.GetEnv("REDIS_CLIENT_PASSWORD", ""),
			DB:       0,
		}
		ttl, _ := time.ParseDuration(utils.GetEnv("REDIS_CLIENT_TTL", "0"))
		return NewRedisCache(ctx, redisConf, prefix, ttl, idExtractor)
	default:
		return nil, svcerror.Newf(svcerror.ErrRepositoryError, "unsupported repository type %q", repoType)
	}
}

// Find returns the first entity the predicate accepts. The second return is
// false when nothing matched.
func Find[T any](ctx context.Context, repo Repository[T], match func(T) bool) (T, bool, error) {
	var zero T
	items, err := repo.List(ctx)
	if err != nil {
		return zero, false, err
	}
	for _, item := range items {
		if match(item) {
			return item, true, nil
		}
	}
	return zero, false, nil
}

// Filter returns every entity the predicate accepts.
func Filter[T any](ctx context.Context, repo Repository[T], match func(T) bool) ([]T, error) {
	items, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}
