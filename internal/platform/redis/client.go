// Package redis connects the optional cache backend. The statistics cache is
// the only consumer; the service degrades to uncached reads when Redis is not
// configured, so a nil client is a valid state, not an error.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"convene/internal/platform/config"
)

const connectTimeout = 5 * time.Second

// Client embeds the go-redis client so callers reach its full API while the
// composition root deals in one constructor.
type Client struct {
	*redis.Client
}

// New connects from configuration. An empty URL returns (nil, nil): Redis is
// simply not configured.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}
