package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/medlab/pkg/config"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// connectTimeout bounds the startup ping. The report cache is optional, so a
// missing Redis must not hold up the store.
const connectTimeout = 2 * time.Second

// Client wraps the go-redis client shared by the report cache and the
// change event bus.
type Client struct {
	client *redis.Client
}

// NewClient connects and pings once. It does not retry.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
		MaxRetries:  -1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.NewStorageUnavailableError("report cache unreachable at "+cfg.RedisAddr(), err)
	}
	return &Client{client: client}, nil
}

// NewClientFromRedis wraps an existing go-redis client
func NewClientFromRedis(client *redis.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying go-redis client.
func (c *Client) Client() *redis.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
