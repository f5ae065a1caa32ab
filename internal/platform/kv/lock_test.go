package kv

import (
	"context"
	"os"
	"testing"
	"time"

	"leetcode_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLocker(t *testing.T) {
	var l Locker = NopLocker{}
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	release()

	_, err = l.Acquire(context.Background(), "k")
	require.NoError(t, err)
}

func TestSubmitLockKey(t *testing.T) {
	assert.Equal(t, "submit_lock:u1:p1", SubmitLockKey("u1", "p1"))
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := ConnectRedis(ctx, Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	l := NewRedisLocker(rdb, time.Minute, nil)
	key := SubmitLockKey("test-"+uuid.NewString(), "p")

	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	require.ErrorIs(t, err, common.ErrLockHeld)

	release()
	release2, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}
