package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.redisdb.Get(ctx, key).Bytes()

	if err != nil {
		// redis.Nil and a flaky connection are both just a miss
		return nil, false
	}

	return val, true
}

func (c *Client) SetBytes(ctx context.Context, key string, val []byte, ttl time.Duration) {
	_ = c.redisdb.Set(ctx, key, val, ttl).Err()
}

func (c *Client) Delete(ctx context.Context, key string) {
	_ = c.redisdb.Del(ctx, key).Err()
}
