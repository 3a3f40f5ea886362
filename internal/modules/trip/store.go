// README: Trip estimate cache backed by Redis.
package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const estimateKeyPrefix = "trip:estimate:%s"

type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, origin, destination string) (Estimate, bool, error) {
	val, err := s.redis.Get(ctx, estimateKey(origin, destination)).Result()
	if err == redis.Nil {
		return Estimate{}, false, nil
	}
	if err != nil {
		return Estimate{}, false, err
	}
	var e Estimate
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Estimate{}, false, err
	}
	return e, true, nil
}

func (s *Store) Put(ctx context.Context, origin, destination string, e Estimate) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, estimateKey(origin, destination), data, s.ttl).Err()
}

func estimateKey(origin, destination string) string {
	return fmt.Sprintf(estimateKeyPrefix, pairKey(origin, destination))
}
