// Package dispatcher routes one event to one user's live connection, wherever
// that connection lives. Delivery is best effort: every failure short of a
// programming error is logged and swallowed, never surfaced to the sender.
package dispatcher

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/presence"
)

// HandleLookup resolves a user to their live connection handle.
type HandleLookup interface {
	Lookup(ctx context.Context, userID string) (presence.Handle, bool, error)
}

// Publisher forwards a payload to another service instance.
type Publisher interface {
	Publish(ctx context.Context, target string, payload []byte) error
}

// LocalSessions pushes a payload to a connection owned by this process.
type LocalSessions interface {
	SendTo(sessionID string, payload []byte) bool
}

type Dispatcher struct {
	local       LocalSessions
	presence    HandleLookup
	router      Publisher
	instanceID  string
	serviceName string
}

func New(local LocalSessions, p HandleLookup, router Publisher, instanceID, serviceName string) *Dispatcher {
	return &Dispatcher{
		local:       local,
		presence:    p,
		router:      router,
		instanceID:  instanceID,
		serviceName: serviceName,
	}
}

// remoteFrame wraps an event payload with the target session on the owning
// instance's local registry.
type remoteFrame struct {
	SessionID string          `json:"sessionId"`
	Payload   json.RawMessage `json:"payload"`
}

// DeliverToUser pushes an event to the user's connection if they are online.
// A presence lookup failure degrades to "treat as offline".
func (d *Dispatcher) DeliverToUser(ctx context.Context, userID, event string, data interface{}) {
	log := observability.GetLogger(ctx)

	payload, err := events.Encode(event, data)
	if err != nil {
		log.Error("dispatcher: error encoding event", zap.String("event", event), zap.Error(err))
		return
	}

	handle, online, err := d.presence.Lookup(ctx, userID)
	if err != nil {
		log.Error("dispatcher: presence lookup failed, skipping push",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !online {
		log.Debug("dispatcher: recipient offline", zap.String("user_id", userID))
		return
	}

	if handle.InstanceID == d.instanceID {
		if d.local.SendTo(handle.SessionID, payload) {
			observability.EventsDeliveredTotal.WithLabelValues(d.serviceName, event, "local").Inc()
		}
		return
	}

	frame, err := json.Marshal(remoteFrame{SessionID: handle.SessionID, Payload: payload})
	if err != nil {
		log.Error("dispatcher: error encoding remote frame", zap.Error(err))
		return
	}
	if err := d.router.Publish(ctx, handle.InstanceID, frame); err != nil {
		log.Error("dispatcher: remote routing failed",
			zap.String("instance", handle.InstanceID), zap.Error(err))
		return
	}
	observability.EventsDeliveredTotal.WithLabelValues(d.serviceName, event, "remote").Inc()
}

// DeliverRemote handles a frame published by another instance for one of our
// local sessions. The recipient may have disconnected between the publisher's
// presence lookup and now; that is an accepted miss.
func (d *Dispatcher) DeliverRemote(payload []byte) {
	var frame remoteFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		observability.Log.Error("dispatcher: error unmarshaling remote frame", zap.Error(err))
		return
	}
	d.local.SendTo(frame.SessionID, frame.Payload)
}

// NewMessage delivers a newMessage push to one recipient.
func (d *Dispatcher) NewMessage(ctx context.Context, recipientID string, evt events.NewMessage) {
	d.DeliverToUser(ctx, recipientID, events.NewMessageEvent, evt)
}

// MessageSeen notifies a message's original sender that it was seen.
func (d *Dispatcher) MessageSeen(ctx context.Context, recipientID string, evt events.MessageSeen) {
	d.DeliverToUser(ctx, recipientID, events.MessageSeenNotification, evt)
}

// Typing relays a typing indicator. No retry, no queuing.
func (d *Dispatcher) Typing(ctx context.Context, to, from string, stopped bool) {
	event := events.UserTyping
	if stopped {
		event = events.UserTypingStopped
	}
	d.DeliverToUser(ctx, to, event, events.TypingPayload{From: from})
}
