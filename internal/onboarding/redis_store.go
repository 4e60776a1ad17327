package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cpn-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const scanCount = 100

// RedisStore is a Store scoped to one onboarding session. Every key is stored as
// namespace+key, so Clear and Keys never see other sessions or unrelated data.
// Writes refresh the key's TTL; abandoned sessions expire on their own.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
	ttl       time.Duration
	logger    logger.Logger
}

// SessionNamespace builds the per-session key namespace, e.g. "onboarding:<id>:".
func SessionNamespace(prefix, sessionID string) string {
	return fmt.Sprintf("%s:%s:", prefix, sessionID)
}

func NewRedisStore(client redis.UniversalClient, namespace string, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		logger:    log.WithFields(map[string]interface{}{"namespace": namespace}),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, s.namespace+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("session store read failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return "", false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.namespace+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.namespace+key).Err(); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Clear removes every key of this session.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx, "")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Keys lists this session's keys starting with prefix, without the namespace.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	full, err := s.scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, s.namespace))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.namespace+prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return keys, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
