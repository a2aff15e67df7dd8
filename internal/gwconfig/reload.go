package gwconfig

import (
	"context"
	"time"

	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/opengw/llmgateway/common/logger"
)

func msToDuration(ms int64) time.Duration { return time.Duration(ms) * time.Millisecond }

// Reloader delivers newly parsed Documents whenever the config bus
// publishes a change. Callers Subscribe once at boot and range over the
// returned channel until ctx is cancelled.
type Reloader interface {
	Subscribe(ctx context.Context) (<-chan *Document, error)
}

// RedisReloader implements the config bus as a Redis Pub/Sub channel; the
// listener is implemented rather than stubbed, since the gateway already
// depends on Redis for the shared rate-limit counter (see DESIGN.md).
// When no channel name is configured, callers should fall back to
// restart-based reload instead of constructing a RedisReloader.
type RedisReloader struct {
	rdb     redis.Cmdable
	channel string
}

func NewRedisReloader(rdb redis.Cmdable, channel string) *RedisReloader {
	return &RedisReloader{rdb: rdb, channel: channel}
}

func (r *RedisReloader) Subscribe(ctx context.Context) (<-chan *Document, error) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}

	out := make(chan *Document)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				doc, err := Parse([]byte(msg.Payload))
				if err != nil {
					logger.Logger.Error("config reload payload failed to parse", zap.Error(err))
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
