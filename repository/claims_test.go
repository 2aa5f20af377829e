package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClaimer(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	claimer := NewRedisClaimer(rdb)
	ctx := context.Background()

	ok, err := claimer.Claim(ctx, "reminder:claim:r1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("salonbook:reminder:claim:r1"))

	ok, err = claimer.Claim(ctx, "reminder:claim:r1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	require.NoError(t, claimer.Release(ctx, "reminder:claim:r1"))
	assert.False(t, mr.Exists("salonbook:reminder:claim:r1"))

	ok, err = claimer.Claim(ctx, "reminder:claim:r1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisClaimExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	claimer := NewRedisClaimer(rdb)
	ctx := context.Background()

	ok, err := claimer.Claim(ctx, "k", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = claimer.Claim(ctx, "k", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
