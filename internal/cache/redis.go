package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "deals:"

// RedisStore is an alternative backend for setups that already run redis.
// Expiry is delegated to redis itself, so ClearExpired is a no-op.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host: "localhost",
		Port: "6379",
		TTL:  DefaultTTL,
	}
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, endpoint string, params map[string]string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+Key(endpoint, params)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, endpoint string, params map[string]string, value []byte) error {
	return s.client.Set(ctx, redisKeyPrefix+Key(endpoint, params), value, s.ttl).Err()
}

func (s *RedisStore) ClearExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		stats.Total++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, err
	}
	// redis drops expired keys itself, so whatever is left is valid
	stats.Valid = stats.Total
	return stats, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
