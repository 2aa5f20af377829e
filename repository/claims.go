package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClaimer hands out reminder claims shared by every scheduler instance.
type RedisClaimer struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisClaimer(rdb *redis.Client) *RedisClaimer {
	return &RedisClaimer{rdb: rdb, prefix: "salonbook:"}
}

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, c.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (c *RedisClaimer) Release(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}
