package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/havaxeban925-ux/scm-backend/config"
	"github.com/havaxeban925-ux/scm-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host":    cfg.Host,
		"port":    cfg.Port,
		"db":      cfg.DB,
		"channel": cfg.Channel,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// Publisher is the part of the Redis client used to fan messages out.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// PublishJSON encodes v and publishes it on channel. It returns the number of
// subscribers that received the message.
func PublishJSON(ctx context.Context, p Publisher, channel string, v interface{}) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode redis message: %w", err)
	}

	receivers, err := p.Publish(ctx, channel, data).Result()
	if err != nil {
		logger.Error("Failed to publish to Redis", err, map[string]interface{}{
			"channel": channel,
		})
		return 0, err
	}

	logger.Debug("Published to Redis", map[string]interface{}{
		"channel":   channel,
		"receivers": receivers,
	})
	return receivers, nil
}
