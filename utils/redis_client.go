package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coachmybody/server/config"
)

// NewRedis builds a client from cfg and pings it. A nil client is returned when
// the server cannot be reached so callers fall back to their in-memory paths.
func NewRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("redis unavailable at %s, continuing without it: %v", client.Options().Addr, err)
		}
		_ = client.Close()
		return nil
	}
	return client
}
