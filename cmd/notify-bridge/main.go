package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/db"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/services"
	"go.uber.org/zap"
)

// Notify Bridge is an optional small service that subscribes to collection
// events and forwards the ones an operator cares about to a webhook.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.NotifyWebhookURL == "" {
		log.Fatal("NOTIFY_WEBHOOK_URL is required")
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	webhook := services.NewWebhookClient(cfg.NotifyWebhookURL, log)

	forward := func(event events.Event) {
		if !events.Notifiable(event.Type) {
			return
		}
		log.Info("forwarding event", zap.String("type", event.Type))
		if err := webhook.Send(ctx, event); err != nil {
			log.Warn("failed to forward notification", zap.String("type", event.Type), zap.Error(err))
		}
	}

	for _, stream := range []string{events.StreamCollection, events.StreamNotify} {
		if err := subscriber.Subscribe(ctx, stream, forward); err != nil {
			log.Fatal("failed to subscribe", zap.String("stream", stream), zap.Error(err))
		}
	}

	log.Info("notify-bridge started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
