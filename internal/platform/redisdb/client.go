package redisdb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/knowledgebase-backend/internal/pkg/logger"
)

// Client is a thin JSON cache over redis. The API tolerates a nil
// receiver so callers can wire it unconditionally and run without a
// cache when redis is down.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewFromEnv(log *logger.Logger) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("redisdb: logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		addr = "localhost:6379"
	}
	password := os.Getenv("REDIS_PASSWORD")

	dbNum := 0
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			dbNum = parsed
		}
	}

	ttl := 5 * time.Minute
	if v := strings.TrimSpace(os.Getenv("REDIS_CACHE_TTL_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ttl = time.Duration(parsed) * time.Second
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbNum,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redisdb: ping: %w", err)
	}

	return &Client{
		rdb: rdb,
		ttl: ttl,
		log: log.With("client", "RedisDB"),
	}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetJSON loads key into dest, reporting whether it was present.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteByPrefix removes every key under prefix with a cursor scan so
// large invalidations do not block redis.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("redisdb: client not initialized")
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
