package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"devicescanner/internal/codec"
	"devicescanner/internal/domain"
)

// RedisOptions configures the Redis sink
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	// Timeout bounds each write. Defaults to 5s.
	Timeout time.Duration
}

// RedisSink stores the present identities as a JSON array under one key
type RedisSink struct {
	client  *redis.Client
	key     string
	timeout time.Duration
	codec   *codec.JSONCodec
}

// NewRedisSink creates a sink. No connection is made until the first write.
func NewRedisSink(opts RedisOptions) *RedisSink {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	})

	return &RedisSink{
		client:  client,
		key:     opts.Key,
		timeout: timeout,
		codec:   codec.NewJSONCodec(),
	}
}

// Name returns the sink identifier
func (r *RedisSink) Name() string {
	return "redis"
}

// Write overwrites the key with the sorted identity list. The key never expires.
func (r *RedisSink) Write(ctx context.Context, snap domain.Snapshot) error {
	data, err := r.codec.Marshal(sortedIdentities(snap))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	return nil
}

// Ping checks connectivity
func (r *RedisSink) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close releases the client connection pool
func (r *RedisSink) Close() error {
	return r.client.Close()
}
