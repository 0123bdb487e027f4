package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/questboard/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultAttemptKeyPrefix = "login:attempts:"

// RedisAttemptStore keeps one sorted set per identifier, scored by attempt time
// in milliseconds. Keys expire one window after the latest attempt, so every
// instance sharing the Redis database sees the same window.
//
// Members are encoded as "<unix-nanos>:<0|1>:<nonce>" so that two attempts in
// the same millisecond never collapse into one member.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
}

func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, prefix: defaultAttemptKeyPrefix}
}

func (s *RedisAttemptStore) key(identifier string) string {
	return s.prefix + identifier
}

func (s *RedisAttemptStore) Append(ctx context.Context, attempt models.LoginAttempt, window time.Duration) error {
	key := s.key(attempt.Identifier)
	cutoff := attempt.AttemptTime.Add(-window).UnixMilli()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(attempt.AttemptTime.UnixMilli()),
			Member: encodeAttemptMember(attempt),
		})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		pipe.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append login attempt: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) Window(ctx context.Context, identifier string, since time.Time) ([]models.LoginAttempt, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key(identifier), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read login attempt window: %w", err)
	}

	attempts := make([]models.LoginAttempt, 0, len(members))
	for _, member := range members {
		attempt, err := decodeAttemptMember(identifier, member)
		if err != nil {
			return nil, err
		}
		// scores are millisecond-granular; filter precisely here
		if attempt.AttemptTime.After(since) {
			attempts = append(attempts, attempt)
		}
	}
	return attempts, nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to clear login attempts: %w", err)
	}
	return nil
}

func encodeAttemptMember(attempt models.LoginAttempt) string {
	flag := "0"
	if attempt.Success {
		flag = "1"
	}
	return fmt.Sprintf("%d:%s:%s", attempt.AttemptTime.UnixNano(), flag, uuid.NewString())
}

func decodeAttemptMember(identifier, member string) (models.LoginAttempt, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return models.LoginAttempt{}, fmt.Errorf("malformed login attempt member %q", member)
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return models.LoginAttempt{}, fmt.Errorf("malformed login attempt timestamp %q: %w", parts[0], err)
	}

	return models.LoginAttempt{
		Identifier:  identifier,
		Success:     parts[1] == "1",
		AttemptTime: time.Unix(0, nanos),
	}, nil
}
