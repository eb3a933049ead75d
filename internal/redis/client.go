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

// SessionKey is the document key for one session record.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// RoomCodeKey is the claim key enforcing code uniqueness among live
// sessions; it carries the same TTL as the session document.
func RoomCodeKey(code string) string {
	return fmt.Sprintf("roomcode:%s", code)
}
