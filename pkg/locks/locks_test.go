package locks

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalLocker_Serializes(t *testing.T) {
	locker := NewLocalLocker(time.Second)

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "tenant-a", func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}

func TestLocalLocker_TimesOut(t *testing.T) {
	locker := NewLocalLocker(10 * time.Millisecond)
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = locker.WithLock(context.Background(), "tenant-a", func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	err := locker.WithLock(context.Background(), "tenant-a", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	ran := false
	require.NoError(t, locker.WithLock(context.Background(), "tenant-b", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "other keys are independent")

	close(release)
}

func TestLocalLocker_ReturnsFnErrorAndReleases(t *testing.T) {
	locker := NewLocalLocker(10 * time.Millisecond)
	boom := errors.New("boom")

	assert.ErrorIs(t, locker.WithLock(context.Background(), "k", func(ctx context.Context) error { return boom }), boom)
	assert.NoError(t, locker.WithLock(context.Background(), "k", func(ctx context.Context) error { return nil }))
}

func TestRedisLocker(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if testing.Short() || host == "" {
		t.Skip("REDIS_HOST not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: host + ":6379"})
	defer rdb.Close()

	locker := NewRedisLocker(rdb, zapadapter.NewZapEctoLogger(zap.NewNop(), nil), RedisConfig{
		KeyPrefix: "clover-test:" + uuid.NewString() + ":",
		TTL:       5 * time.Second,
	})
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, "tenant-a")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "tenant-a")
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.ErrorIs(t, locker.WithLock(ctx, "tenant-a", func(ctx context.Context) error { return nil }), ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)

	ran := false
	require.NoError(t, locker.WithLock(ctx, "tenant-a", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
}
