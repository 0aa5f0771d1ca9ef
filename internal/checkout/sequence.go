package checkout

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

const orderSequenceKey = "orders:seq"

// Sequence hands out order ids.
type Sequence interface {
	Next(ctx context.Context) (int, error)
}

type RedisSequence struct {
	client redis.Cmdable
	key    string
}

func NewRedisSequence(client redis.Cmdable) *RedisSequence {
	return &RedisSequence{client: client, key: orderSequenceKey}
}

func (s *RedisSequence) Next(ctx context.Context) (int, error) {
	id, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", s.key, err)
	}
	return int(id), nil
}

// MemorySequence is process-local; ids restart with the process.
type MemorySequence struct {
	last atomic.Int64
}

func (s *MemorySequence) Next(ctx context.Context) (int, error) {
	return int(s.last.Add(1)), nil
}
