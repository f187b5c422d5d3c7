package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

// Publish stamps the event and fans it out on stream. Having no subscribers
// is not an error.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	receivers, err := p.client.Publish(ctx, stream, data).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", stream, err)
	}
	p.log.Debug("event published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
		zap.Int64("receivers", receivers),
	)
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe returns once the subscription is confirmed; events are then
// delivered to handler from a goroutine until ctx is done.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	pubsub := s.client.Subscribe(ctx, stream)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.log.Error("failed to unmarshal event", zap.String("stream", stream), zap.Error(err))
					continue
				}
				handler(event)
			}
		}
	}()

	return nil
}
