package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// CachedString returns the cached value of key, or computes it with fill and
// caches it for ttl. A cache failure falls back to fill.
func CachedString(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, fill func() (string, error)) (string, error) {
	if rdb != nil {
		val, err := rdb.Get(ctx, key).Result()
		if err == nil {
			return val, nil
		}
		if err != redis.Nil {
			log.Printf("[redis] Error retrieving value for %s: %s\n", key, err.Error())
		}
	}
	val, err := fill()
	if err != nil {
		return "", err
	}
	if rdb != nil {
		if err := rdb.SetEx(ctx, key, val, ttl).Err(); err != nil {
			log.Printf("Failed to set value for key %s: %s\n", key, err)
		}
	}
	return val, nil
}
