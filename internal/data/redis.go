package data

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"yatube-backend/internal/config"
)

// NewRedis returns the go-redis client backing the group cache and feed inboxes.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Ping checks that redis answers.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errors.New("redis client not configured")
	}
	return client.Ping(ctx).Err()
}
