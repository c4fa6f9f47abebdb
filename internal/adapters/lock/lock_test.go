package lock

import (
	"context"
	"testing"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_AcquireRelease(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlock, err := l.Acquire(ctx, "scan", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "scan", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	// otra key es independiente
	unlockSettle, err := l.Acquire(ctx, "settle", time.Minute)
	require.NoError(t, err)
	unlockSettle()

	unlock()
	unlock() // idempotente

	again, err := l.Acquire(ctx, "scan", time.Minute)
	require.NoError(t, err)
	again()
}

func TestRedis_KeyPrefix(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	assert.Equal(t, "evscanner:lock:scan", newRedisWithClient(rdb, "").key("scan"))
	assert.Equal(t, "bets:scan", newRedisWithClient(rdb, "bets:").key("scan"))
}

func TestRedis_AcquireUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer rdb.Close()

	_, err := newRedisWithClient(rdb, "").Acquire(context.Background(), "scan", time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLockHeld)
}
