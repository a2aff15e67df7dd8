package common

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/opengw/llmgateway/common/config"
	"github.com/opengw/llmgateway/common/logger"
)

var RDB redis.Cmdable

var redisEnabled atomic.Bool

func IsRedisEnabled() bool { return redisEnabled.Load() }

func SetRedisEnabled(enabled bool) { redisEnabled.Store(enabled) }

// InitRedisClient connects to Redis when REDIS_CONN_STRING is configured.
// The shared rate-limit counter and config-reload pub/sub both fall back to
// local-only behavior when Redis is absent, so a missing connection string
// is not an error.
func InitRedisClient() error {
	if config.RedisConnString == "" {
		SetRedisEnabled(false)
		logger.Logger.Info("REDIS_CONN_STRING not set, shared rate limiting disabled")
		return nil
	}

	if config.RedisMasterName == "" {
		opt, err := redis.ParseURL(config.RedisConnString)
		if err != nil {
			return errors.Wrap(err, "parse redis connection string")
		}
		RDB = redis.NewClient(opt)
	} else {
		RDB = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      strings.Split(config.RedisConnString, ","),
			Password:   config.RedisPassword,
			MasterName: config.RedisMasterName,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RDB.Ping(ctx).Result(); err != nil {
		return errors.Wrap(err, "redis ping failed")
	}
	SetRedisEnabled(true)
	logger.Logger.Info("redis connected")
	return nil
}

func RedisSet(ctx context.Context, key string, value string, expiration time.Duration) error {
	if RDB == nil {
		return errors.New("redis not initialized")
	}
	if err := RDB.Set(ctx, key, value, expiration).Err(); err != nil {
		return errors.Wrapf(err, "set redis key: %s", key)
	}
	return nil
}

func RedisGet(ctx context.Context, key string) (string, error) {
	if RDB == nil {
		return "", errors.New("redis not initialized")
	}
	val, err := RDB.Get(ctx, key).Result()
	if err != nil {
		return "", errors.Wrapf(err, "get redis key: %s", key)
	}
	return val, nil
}

func RedisDel(ctx context.Context, key string) error {
	if RDB == nil {
		return errors.New("redis not initialized")
	}
	if err := RDB.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "delete redis key: %s", key)
	}
	return nil
}

// incrementIfBelowScript atomically increments the counter at KEYS[1] by 1 and
// sets its expiration to ARGV[2] seconds (only on first creation), refusing
// the increment when the post-increment value would exceed ARGV[1]. Returns
// 1 when the increment was accepted, 0 when the limit was already reached.
// Doing the check-and-increment in Lua avoids the read-then-write race that a
// plain GET followed by INCR would have under concurrent callers.
const incrementIfBelowScript = `
local current = redis.call("GET", KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
local new = redis.call("INCR", KEYS[1])
if new == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 1
`

// RedisIncrementIfBelow performs the shared-counter check-and-increment used
// by the rate limiting stage: it increments key only if doing so would not
// push the counter above limit, returning whether the increment was accepted.
func RedisIncrementIfBelow(ctx context.Context, key string, limit int64, windowSeconds int64) (bool, error) {
	if RDB == nil {
		return false, errors.New("redis not initialized")
	}
	res, err := RDB.Eval(ctx, incrementIfBelowScript, []string{key}, limit, windowSeconds).Result()
	if err != nil {
		return false, errors.Wrapf(err, "eval increment-if-below for key: %s", key)
	}
	n, ok := res.(int64)
	if !ok {
		return false, errors.Errorf("unexpected eval result type %T", res)
	}
	return n == 1, nil
}
