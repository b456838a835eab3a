package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"dinein-telegram/models"

	"github.com/go-redis/redis/v8"
)

const menuKey = "menu:items"

// Client caches the normalized menu in Redis for a short TTL so repeat
// browsing does not hammer the backend. Cache trouble is never fatal:
// a miss or a Redis error just means the menu is fetched again.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func Initialize(redisURL string, ttl time.Duration) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Client{rdb: rdb, ttl: ttl}, nil
}

func (c *Client) GetMenu(ctx context.Context) ([]models.MenuItem, bool) {
	val, err := c.rdb.Get(ctx, menuKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("menu cache get: %v", err)
		}
		return nil, false
	}
	var items []models.MenuItem
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		log.Printf("menu cache decode: %v", err)
		return nil, false
	}
	return items, true
}

func (c *Client) SetMenu(ctx context.Context, items []models.MenuItem) {
	data, err := json.Marshal(items)
	if err != nil {
		log.Printf("menu cache encode: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, menuKey, data, c.ttl).Err(); err != nil {
		log.Printf("menu cache set: %v", err)
	}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
