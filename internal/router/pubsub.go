// Package router moves fan-out payloads between service instances over a
// Redis pub/sub channel per instance.
package router

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

type Router struct {
	client     *redis.Client
	instanceID string
}

func New(client *redis.Client, instanceID string) *Router {
	return &Router{client: client, instanceID: instanceID}
}

func (r *Router) channel(id string) string {
	return "delivery:" + id
}

func (r *Router) Publish(ctx context.Context, target string, payload []byte) error {
	log := observability.GetLogger(ctx)
	log.Debug("publishing to instance", zap.String("target", target))
	return r.client.Publish(ctx, r.channel(target), payload).Err()
}

func (r *Router) Subscribe(ctx context.Context, handler func([]byte)) {
	channelName := r.channel(r.instanceID)
	pubsub := r.client.Subscribe(ctx, channelName)

	go func() {
		log := observability.GetLogger(ctx)
		log.Info("router: subscribed to channel", zap.String("channel", channelName))
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("router: subscription loop stopping: context canceled")
				return
			case msg, ok := <-ch:
				if !ok {
					log.Warn("router: pubsub channel closed")
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
}
