package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	svcerror "pedidos-saga/pkg/error"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entities under prefix+id. Entities must implement the
// encoding.BinaryMarshaler/Unmarshaler pair (the model types do, via JSON).
type RedisCache[T any] struct {
	Client *redis.Client
	Prefix string
	IDFn   IDExtractor[T]
	TTL    time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

func NewRedisCache[T any](ctx context.Context, redisConf RedisConfig, prefix string, ttl time.Duration, idFn IDExtractor[T]) (RedisCache[T], error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisConf.Address,
		Password: redisConf.Password,
		DB:       redisConf.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return RedisCache[T]{}, svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.New"),
			svcerror.WithMsg("connect to redis"),
			svcerror.WithCause(err),
		)
	}

	return RedisCache[T]{
		Client: client,
		Prefix: prefix,
		IDFn:   idFn,
		TTL:    ttl,
	}, nil
}

func (r RedisCache[T]) key(id string) string { return r.Prefix + id }

func (r RedisCache[T]) Load(ctx context.Context, id string) (T, error) {
	var zero, value T
	err := r.Client.Get(ctx, r.key(id)).Scan(&value)
	if errors.Is(err, redis.Nil) {
		return zero, svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp("Repository.Redis.Load"),
			svcerror.WithMsg(fmt.Sprintf(errFmtNotFound, id)),
		)
	}
	if err != nil {
		return zero, svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.Load"),
			svcerror.WithMsg("load "+r.key(id)),
			svcerror.WithCause(err),
		)
	}
	return value, nil
}

func (r RedisCache[T]) Save(ctx context.Context, entity T) error {
	id := r.IDFn(entity)
	if err := r.Client.Set(ctx, r.key(id), entity, r.TTL).Err(); err != nil {
		return svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.Save"),
			svcerror.WithMsg("save "+r.key(id)),
			svcerror.WithCause(err),
		)
	}
	return nil
}

func (r RedisCache[T]) Update(ctx context.Context, entity T) error {
	id := r.IDFn(entity)
	if _, err := r.Client.Get(ctx, r.key(id)).Result(); err != nil {
		if errors.Is(err, redis.Nil) {
			return svcerror.New(
				svcerror.ErrNotFoundError,
				svcerror.WithOp("Repository.Redis.Update"),
				svcerror.WithMsg(fmt.Sprintf(errFmtNotFound, id)),
			)
		}
		return svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.Update"),
			svcerror.WithMsg("load "+r.key(id)),
			svcerror.WithCause(err),
		)
	}
	return r.Save(ctx, entity)
}

func (r RedisCache[T]) Delete(ctx context.Context, id string) error {
	deleted, err := r.Client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.Delete"),
			svcerror.WithMsg("delete "+r.key(id)),
			svcerror.WithCause(err),
		)
	}
	if deleted == 0 {
		return svcerror.New(
			svcerror.ErrNotFoundError,
			svcerror.WithOp("Repository.Redis.Delete"),
			svcerror.WithMsg(fmt.Sprintf(errFmtNotFound, id)),
		)
	}
	return nil
}

func (r RedisCache[T]) List(ctx context.Context) ([]T, error) {
	var items []T

	iter := r.Client.Scan(ctx, 0, r.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		var value T
		if err := r.Client.Get(ctx, iter.Val()).Scan(&value); err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			return nil, svcerror.New(
				svcerror.ErrRepositoryError,
				svcerror.WithOp("Repository.Redis.List"),
				svcerror.WithMsg("load "+iter.Val()),
				svcerror.WithCause(err),
			)
		}
		items = append(items, value)
	}
	if err := iter.Err(); err != nil {
		return nil, svcerror.New(
			svcerror.ErrRepositoryError,
			svcerror.WithOp("Repository.Redis.List"),
			svcerror.WithMsg("scan "+r.Prefix+"*"),
			svcerror.WithCause(err),
		)
	}

	return items, nil
}
