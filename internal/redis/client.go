package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// LoginLimitKey is the rate limit bucket for password logins from an IP.
func LoginLimitKey(ip string) string {
	return fmt.Sprintf("login:%s", ip)
}

// CodeLimitKey is the rate limit bucket for code redemptions from an IP.
func CodeLimitKey(ip string) string {
	return fmt.Sprintf("otp:%s", ip)
}
