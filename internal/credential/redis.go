package credential

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
)

const redisKeyPrefix = "tsflow:credentials:"

// RedisStore keeps the sign-in in Redis so it survives sidecar restarts and
// can be shared by replicas. Expiry rides on the key's TTL.
type RedisStore struct {
	client  *redis.Client
	profile string
}

func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisStore{client: client, profile: profile}
}

func (s *RedisStore) key() string {
	return redisKeyPrefix + s.profile
}

func (s *RedisStore) Put(ctx context.Context, creds Credentials) error {
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(), payload, TTL).Err()
}

func (s *RedisStore) Get(ctx context.Context) (Credentials, error) {
	payload, err := s.client.Get(ctx, s.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}
