package consent

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"drivelog/pkg/domain"
)

// RedisStore keeps grant and deny edges in Redis sets, one set per
// (kind, subject). Set membership gives the same unconditional, idempotent
// semantics as the in-memory map.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "consent"}
}

func (s *RedisStore) key(kind EdgeKind, subject domain.Identity) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, kind, subject)
}

func (s *RedisStore) Set(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) error {
	if err := s.client.SAdd(ctx, s.key(kind, subject), reader.String()).Err(); err != nil {
		return fmt.Errorf("set %s edge: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) error {
	if err := s.client.SRem(ctx, s.key(kind, subject), reader.String()).Err(); err != nil {
		return fmt.Errorf("clear %s edge: %w", kind, err)
	}
	return nil
}

func (s *RedisStore) Has(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key(kind, subject), reader.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check %s edge: %w", kind, err)
	}
	return ok, nil
}
