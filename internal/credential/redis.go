package credential

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	userKeyPrefix = "user_"
	registryKey   = "registered_users"
)

type redisStore struct {
	client redis.Cmdable
}

// NewRedis creates a Redis-backed credential store. Each identifier maps to a
// bcrypt hash under "user_<identifier>", and a set keeps the registry of all
// enrolled identifiers.
func NewRedis(client redis.Cmdable) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Enroll(ctx context.Context, identifier, pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey(identifier), hash, 0)
	pipe.SAdd(ctx, registryKey, identifier)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enroll credential: %w", err)
	}
	return nil
}

func (s *redisStore) Verify(ctx context.Context, identifier, pin string) (bool, error) {
	hash, err := s.client.Get(ctx, userKey(identifier)).Bytes()
	if err == redis.Nil {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *redisStore) Exists(ctx context.Context, identifier string) (bool, error) {
	n, err := s.client.Exists(ctx, userKey(identifier)).Result()
	if err != nil {
		return false, fmt.Errorf("check credential: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) Identifiers(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, registryKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	return members, nil
}

func userKey(identifier string) string {
	return userKeyPrefix + identifier
}
