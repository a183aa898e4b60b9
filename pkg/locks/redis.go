package locks

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisConfig configures a RedisLocker
type RedisConfig struct {
	KeyPrefix string
	// TTL bounds how long a crashed holder can block others
	TTL time.Duration
	// Wait is how long WithLock retries before giving up; zero tries once
	Wait time.Duration
}

// RedisLocker is a SET NX lock with a random owner token
type RedisLocker struct {
	rdb    redis.UniversalClient
	logger ectologger.Logger
	config RedisConfig
}

// Lock is a held Redis lock
type Lock struct {
	locker *RedisLocker
	key    string
	value  string
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(rdb redis.UniversalClient, logger ectologger.Logger, config RedisConfig) *RedisLocker {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "clover:lock:"
	}
	if config.TTL <= 0 {
		config.TTL = 30 * time.Second
	}
	return &RedisLocker{
		rdb:    rdb,
		logger: logger,
		config: config,
	}
}

// Acquire makes one attempt to take the lock
func (l *RedisLocker) Acquire(ctx context.Context, key string) (*Lock, error) {
	lockKey := l.config.KeyPrefix + key
	lockValue := uuid.New().String()

	ok, err := l.rdb.SetNX(ctx, lockKey, lockValue, l.config.TTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.logger.WithContext(ctx).Debugf("Acquired lock: %s", lockKey)
	return &Lock{locker: l, key: lockKey, value: lockValue}, nil
}

// TryAcquire retries Acquire with capped exponential backoff until the configured wait expires
func (l *RedisLocker) TryAcquire(ctx context.Context, key string) (*Lock, error) {
	deadline := time.Now().Add(l.config.Wait)
	backoff := 10 * time.Millisecond

	for {
		lock, err := l.Acquire(ctx, key)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > 500*time.Millisecond {
				backoff = 500 * time.Millisecond
			}
		}
	}
}

// Release deletes the lock only if this holder still owns it
func (lock *Lock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, lock.locker.rdb, []string{lock.key}, lock.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}

	lock.locker.logger.WithContext(ctx).Debugf("Released lock: %s", lock.key)
	return nil
}

func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lock, err := l.TryAcquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		// release on a fresh context so a cancelled request still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			l.logger.WithContext(ctx).WithError(err).Warnf("Failed to release lock: %s", lock.key)
		}
	}()

	return fn(ctx)
}

// Ping checks the Redis connection
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}
