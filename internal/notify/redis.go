package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rouemaroc/spinwheel/internal/config"
	"github.com/rouemaroc/spinwheel/internal/domain"
)

const pingTimeout = 2 * time.Second

// NewRedisClient returns nil when the server does not answer a ping, callers
// then fall back to in-process delivery.
func NewRedisClient(conf *config.RedisConfig) *redis.Client {
	if conf == nil || conf.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("redis unreachable, live feed stays in-process", zap.Error(err), zap.String("addr", conf.Addr))
		_ = client.Close()

		return nil
	}

	return client
}

// RedisPublisher spreads events across API instances over a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("p.client.Publish -> %w", err)
	}

	return nil
}

// Subscribe forwards every event received on the channel to sink until ctx is
// done.
func (p *RedisPublisher) Subscribe(ctx context.Context, sink Sink) {
	pubsub := p.client.Subscribe(ctx, p.channel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				zap.L().Warn("dropping malformed live event", zap.Error(err))
				continue
			}
			sink.Broadcast(event)
		}
	}
}
