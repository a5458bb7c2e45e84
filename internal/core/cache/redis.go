package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"storeapi/internal/core/metrics"
)

// Cache 为 nil 时所有方法直接回源，调用方不必判断是否启用了 redis
type Cache struct {
	RDB *redis.Client
	sf  singleflight.Group
}

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

func New(o Options) *Cache {
	return &Cache{
		RDB: redis.NewClient(&redis.Options{
			Addr:        o.Addr,
			Password:    o.Password,
			DB:          o.DB,
			DialTimeout: o.DialTimeout,
		}),
	}
}

// Connect 创建并 ping，启动阶段用
func Connect(ctx context.Context, o Options) (*Cache, error) {
	c := New(o)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.RDB.Ping(pingCtx).Err(); err != nil {
		_ = c.RDB.Close()
		return nil, fmt.Errorf("redis ping %s: %w", o.Addr, err)
	}
	return c, nil
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return load(ctx)
	}
	// 先读缓存；redis 不可用时按未命中处理
	b, err := c.RDB.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.FeedCacheTotal.WithLabelValues("hit").Inc()
		return b, nil
	case err == redis.Nil:
		metrics.FeedCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.FeedCacheTotal.WithLabelValues("error").Inc()
	}
	// single flight 合并回源
	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		_ = c.RDB.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Version 读取版本号，不存在时为 0；nil cache 同样返回 0。
// 调用方把版本号拼进 key，读失败时应直接回源。
func (c *Cache) Version(ctx context.Context, key string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	n, err := c.RDB.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// Bump 版本号加一。旧版本下的 key 不会再被读到，等 TTL 自然过期；
// 失效前就开始的回源即使之后才写入，也只会写到旧版本的 key 上。
func (c *Cache) Bump(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}
	return c.RDB.Incr(ctx, key).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.RDB.Close()
}
