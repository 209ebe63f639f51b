// Package redis opens the optional Redis connection shared by the ledger read
// cache and the sign-in lockout store.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"petidentity/internal/platform/config"
)

type Client struct {
	*redis.Client
}

// New connects and pings. It returns a nil client, and no error, when
// cfg.URL is empty.
func New(ctx context.Context, cfg config.Redis, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	applyPool(opts, cfg)

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB, "pool_size", opts.PoolSize)
	return &Client{Client: client}, nil
}

func applyPool(opts *redis.Options, cfg config.Redis) {
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
}

// Cmdable returns the command interface, or an untyped nil for a nil client
// so optional consumers can test it against nil.
func (c *Client) Cmdable() redis.Cmdable {
	if c == nil {
		return nil
	}
	return c.Client
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
