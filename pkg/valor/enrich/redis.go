package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/komsit37/valor/pkg/valor/types"
)

const redisKeyPrefix = "valor:quote:"

// RedisCache shares quotes between runs through Redis. Redis errors are
// logged and fall through to the wrapped source.
type RedisCache struct {
	client *redis.Client
	next   MarketData
	ttl    time.Duration
	Logger *slog.Logger
}

// DialRedis connects and pings with a 5s timeout.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("enrich: redis ping: %w", err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, next MarketData, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, next: next, ttl: ttl}
}

type redisQuote struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price,omitempty"`
	PrevClose *float64 `json:"prev_close,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Shares    *float64 `json:"shares,omitempty"`
}

func (c *RedisCache) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *RedisCache) Quote(ctx context.Context, sym string) (types.Quote, error) {
	key := redisKeyPrefix + sym
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rq redisQuote
		if jerr := json.Unmarshal(raw, &rq); jerr == nil {
			return types.Quote(rq), nil
		}
		c.logger().Warn("redis quote decode failed", "sym", sym)
	case !errors.Is(err, redis.Nil):
		c.logger().Warn("redis quote get failed", "sym", sym, "err", err)
	}

	q, err := c.next.Quote(ctx, sym)
	if err != nil {
		return q, err
	}
	if b, jerr := json.Marshal(redisQuote(q)); jerr == nil {
		if serr := c.client.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.logger().Warn("redis quote set failed", "sym", sym, "err", serr)
		}
	}
	return q, nil
}
