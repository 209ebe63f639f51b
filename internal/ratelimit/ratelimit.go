// Package ratelimit locks out repeated failed sign-ins per email and client IP.
package ratelimit

import (
	"github.com/redis/go-redis/v9"

	"petidentity/internal/ratelimit/service"
	"petidentity/internal/ratelimit/store"
)

type (
	Service = service.Service
	Config  = service.Config
	Option  = service.Option
)

var (
	WithLogger  = service.WithLogger
	WithMetrics = service.WithMetrics
	WithConfig  = service.WithConfig
)

// New returns a lockout service backed by Redis when rdb is non-nil and by
// process memory otherwise.
func New(rdb redis.Cmdable, opts ...Option) (*Service, error) {
	if rdb != nil {
		return service.New(store.NewRedis(rdb), opts...)
	}
	return service.New(store.NewInMemory(), opts...)
}
