// Package redis wraps go-redis with the hash-write-plus-publish pattern
// pkg/events uses to mirror weather readings for dashboards and
// automations subscribed to the same keys.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client is a thin wrapper around a go-redis client bound to one context.
type Client struct {
	client *redis.Client
	ctx    context.Context
}

// New connects to addr and verifies the connection with a PING before
// returning.
func New(addr string, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &Client{
		client: client,
		ctx:    ctx,
	}, nil
}

// WriteAndPublishString writes a string value into a hash field and
// publishes the change on the hash's key, both in one pipelined round trip.
func (c *Client) WriteAndPublishString(key, field, value string) error {
	pipe := c.client.Pipeline()
	pipe.HSet(c.ctx, key, field, value)
	pipe.Publish(c.ctx, key, fmt.Sprintf("%s:%s", field, value))
	_, err := pipe.Exec(c.ctx)
	return err
}

// WriteAndPublishInt writes an integer value into a hash field and
// publishes the change on the hash's key, both in one pipelined round trip.
func (c *Client) WriteAndPublishInt(key, field string, value int) error {
	pipe := c.client.Pipeline()
	pipe.HSet(c.ctx, key, field, value)
	pipe.Publish(c.ctx, key, fmt.Sprintf("%s:%d", field, value))
	_, err := pipe.Exec(c.ctx)
	return err
}

// Subscribe subscribes to a Redis channel, returning a receive channel and
// an unsubscribe func.
func (c *Client) Subscribe(channel string) (<-chan *redis.Message, func()) {
	pubsub := c.client.Subscribe(c.ctx, channel)
	ch := pubsub.Channel()
	return ch, func() { pubsub.Close() }
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
