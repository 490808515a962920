package notify

import (
	"context"

	"labtrack/pkg/redisx"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisEmitter publishes events to a Redis Stream; downstream
// notification workers consume the stream and handle delivery.
type RedisEmitter struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewRedisEmitter(client *redis.Client, stream string, logger *zap.Logger) *RedisEmitter {
	return &RedisEmitter{client: client, stream: stream, logger: logger}
}

var _ Emitter = (*RedisEmitter)(nil)

func (e *RedisEmitter) Emit(ctx context.Context, ev Event) error {
	id, err := redisx.PublishJSONToStream(ctx, e.client, e.stream, ev)
	if err != nil {
		return err
	}
	e.logger.Debug("event published",
		zap.String("stream", e.stream),
		zap.String("message_id", id),
		zap.String("kind", ev.Kind))
	return nil
}
