package events

import (
	"context"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
	"github.com/havaxeban925-ux/scm-backend/pkg/redis"
)

// RedisPublisher forwards committed events to a Redis pub/sub channel so other
// processes can follow the engine.
type RedisPublisher struct {
	client  redis.Publisher
	channel string
}

func NewRedisPublisher(client redis.Publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.StyleEvent) error {
	_, err := redis.PublishJSON(ctx, p.client, p.channel, event)
	return err
}
