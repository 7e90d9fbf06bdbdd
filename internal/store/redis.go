package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/salgsmotor/internal/model"
)

const redisKeyPrefix = "salgsmotor:company:"

// RedisStore implements Store on a Redis string key per company. Records
// never expire; a refresh replaces the value with a single SET.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to Redis and pings it.
func NewRedis(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	s := NewRedisWithClient(rdb)
	if err := s.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{client: rdb}
}

func redisKey(orgnr model.OrgNumber) string { return redisKeyPrefix + orgnr.String() }

func (s *RedisStore) Get(ctx context.Context, orgnr model.OrgNumber) (*model.Record, error) {
	data, err := s.client.Get(ctx, redisKey(orgnr)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: redis get")
	}
	return decodeRecord(data)
}

func (s *RedisStore) Put(ctx context.Context, orgnr model.OrgNumber, rec *model.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(orgnr), data, 0).Err(); err != nil {
		return eris.Wrap(err, "store: redis set")
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "store: redis ping")
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Name() string { return "redis" }
