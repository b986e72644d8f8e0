package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskdeck/internal/service"
)

// RedisStore keeps the session record under SessionKey in redis.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects to the redis URL and pings it.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (service.Session, bool, error) {
	data, err := s.client.Get(ctx, SessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return service.Session{}, false, nil
	}
	if err != nil {
		return service.Session{}, false, err
	}
	sess, err := decode(data)
	if err != nil {
		return service.Session{}, false, err
	}
	return sess, true, nil
}

func (s *RedisStore) Save(ctx context.Context, sess service.Session) error {
	payload, err := encode(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, SessionKey, payload, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context) error {
	return s.client.Del(ctx, SessionKey).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
