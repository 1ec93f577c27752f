package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/rs/zerolog/log"
)

const scanBatch = 500

// DefaultPrefix namespaces cache keys in a shared Redis.
const DefaultPrefix = "termshield:tm:"

// RedisConfig addresses a Redis server.
type RedisConfig struct {
	Addr   string `mapstructure:"redis_addr"`
	Prefix string `mapstructure:"prefix"`
	DB     int    `mapstructure:"redis_db"`
}

type redisClient interface {
	Get(key string) *redis.StringCmd
	Set(key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(cursor uint64, match string, count int64) *redis.ScanCmd
	Del(keys ...string) *redis.IntCmd
}

// RedisCache shares results between processes. Values are JSON encoded under
// prefix + sha256(text). Redis failures degrade to cache misses.
type RedisCache[V any] struct {
	client redisClient
	prefix string
}

func NewRedis[V any](conf RedisConfig) *RedisCache[V] {
	return newRedisCache[V](redis.NewClient(&redis.Options{Addr: conf.Addr, DB: conf.DB}), conf.Prefix)
}

func newRedisCache[V any](client redisClient, prefix string) *RedisCache[V] {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisCache[V]{client: client, prefix: prefix}
}

func (c *RedisCache[V]) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + hex.EncodeToString(sum[:])
}

func (c *RedisCache[V]) Get(text string) (V, bool) {
	var v V
	b, err := c.client.Get(c.key(text)).Bytes()
	if err == redis.Nil {
		return v, false
	} else if err != nil {
		log.Warn().Err(err).Msg("redis cache get failed")
		return v, false
	}
	if err := json.Unmarshal(b, &v); err != nil {
		log.Warn().Err(err).Msg("redis cache entry undecodable")
		return v, false
	}
	return v, true
}

func (c *RedisCache[V]) Set(text string, v V) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Msg("redis cache entry unencodable")
		return
	}
	if err := c.client.Set(c.key(text), b, 0).Err(); err != nil {
		log.Warn().Err(err).Msg("redis cache set failed")
	}
}

// Clear deletes every key under the prefix.
func (c *RedisCache[V]) Clear() {
	err := c.scan(func(keys []string) error {
		return c.client.Del(keys...).Err()
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis cache clear failed")
	}
}

func (c *RedisCache[V]) Len() int {
	n := 0
	err := c.scan(func(keys []string) error {
		n += len(keys)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis cache scan failed")
	}
	return n
}

func (c *RedisCache[V]) scan(fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan %s*: %w", c.prefix, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
