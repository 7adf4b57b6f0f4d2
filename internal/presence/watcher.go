package presence

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

// Broadcaster pushes one payload to every local live connection.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Watcher listens for presence updates from any instance and rebroadcasts the
// current online-user list to this instance's connections. The list is
// eventually consistent; readers may observe it slightly stale.
type Watcher struct {
	client      *redis.Client
	registry    *Registry
	broadcaster Broadcaster
}

func NewWatcher(client *redis.Client, registry *Registry, broadcaster Broadcaster) *Watcher {
	return &Watcher{
		client:      client,
		registry:    registry,
		broadcaster: broadcaster,
	}
}

func (w *Watcher) Start(ctx context.Context) {
	go func() {
		pubsub := w.client.Subscribe(ctx, UpdateChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var event UpdateEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				observability.GetLogger(ctx).Error("presence watcher: error unmarshaling event", zap.Error(err))
				continue
			}
			w.handleUpdate(ctx, &event)
		}
	}()
}

func (w *Watcher) handleUpdate(ctx context.Context, event *UpdateEvent) {
	log := observability.GetLogger(ctx)

	users, err := w.registry.OnlineUsers(ctx)
	if err != nil {
		log.Error("presence watcher: error listing online users", zap.Error(err))
		return
	}
	if users == nil {
		users = []string{}
	}

	payload, err := events.Encode(events.GetOnlineUsers, users)
	if err != nil {
		log.Error("presence watcher: error encoding event", zap.Error(err))
		return
	}

	w.broadcaster.Broadcast(payload)
	log.Debug("presence watcher: processed update",
		zap.String("user_id", event.UserID),
		zap.String("status", event.Status))
}
