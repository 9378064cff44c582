package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and returns a mirror store whose snapshots
// expire after ttl. The ttl should cover the attempt duration plus a grace
// window, so an abandoned mirror does not outlive its usefulness.
func NewRedisStore(cfg *config.Config, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func key(attemptID uint) string {
	return fmt.Sprintf("attempt:mirror:%d", attemptID)
}

func (s *redisStore) Save(ctx context.Context, snap *Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(snap.AttemptID), payload, s.ttl).Err()
}

func (s *redisStore) Load(ctx context.Context, attemptID uint) (*Snapshot, error) {
	raw, err := s.client.Get(ctx, key(attemptID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *redisStore) Clear(ctx context.Context, attemptID uint) error {
	return s.client.Del(ctx, key(attemptID)).Err()
}
