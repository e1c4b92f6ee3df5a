// Package redis implements a distributed lock.Locker on Redis using
// SET NX PX for acquisition and a compare-and-delete script for release.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/viant/reviewgate/service/lock"
)

// releaseScript deletes the key only when it still holds our token.
// KEYS[1] = lock key, ARGV[1] = token
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config controls lock behaviour.
type Config struct {
	Addr       string        `json:"addr" yaml:"addr"`
	Password   string        `json:"password,omitempty" yaml:"password,omitempty"`
	DB         int           `json:"db" yaml:"db"`
	Prefix     string        `json:"prefix" yaml:"prefix"`
	TTL        time.Duration `json:"ttl" yaml:"ttl"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay"`
}

// DefaultConfig returns sane defaults; TTL bounds how long a crashed holder
// can block other writers.
func DefaultConfig() Config {
	return Config{
		Addr:       "localhost:6379",
		Prefix:     "reviewgate:lock:",
		TTL:        30 * time.Second,
		RetryDelay: 25 * time.Millisecond,
	}
}

// Locker is a Redis-backed lock.Locker.
type Locker struct {
	client goredis.UniversalClient
	config Config
}

// New creates a locker with its own client.
func New(config Config) *Locker {
	client := goredis.NewClient(&goredis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return NewWithClient(client, config)
}

// NewWithClient creates a locker on an existing client.
func NewWithClient(client goredis.UniversalClient, config Config) *Locker {
	defaults := DefaultConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.Prefix == "" {
		config.Prefix = defaults.Prefix
	}
	return &Locker{client: client, config: config}
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	redisKey := l.config.Prefix + key
	token := uuid.New().String()
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.config.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.config.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	var releaseErr error = lock.ErrNotHeld
	return func() error {
		once.Do(func() {
			releaseErr = l.release(redisKey, token)
		})
		return releaseErr
	}, nil
}

// Close releases the underlying client.
func (l *Locker) Close() error {
	return l.client.Close()
}

func (l *Locker) release(redisKey, token string) error {
	// release must not be skipped because the caller's context ended
	ctx, cancel := context.WithTimeout(context.Background(), l.config.TTL)
	defer cancel()
	deleted, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", redisKey, err)
	}
	if deleted == 0 {
		return lock.ErrNotHeld
	}
	return nil
}

var _ lock.Locker = (*Locker)(nil)
