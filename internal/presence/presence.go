// Package presence is the shared registry of which users currently hold a live
// connection and on which process instance. It is advisory: entries are lost
// on registry restart and the rest of the system treats absence as offline.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	hashKey       = "userSocketMap"
	UpdateChannel = "presence:updates"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

var ErrBadHandle = errors.New("malformed connection handle")

// Handle addresses one live connection: the owning process instance plus the
// session id inside that instance's local registry.
type Handle struct {
	InstanceID string
	SessionID  string
}

func (h Handle) String() string {
	return h.InstanceID + "/" + h.SessionID
}

func ParseHandle(s string) (Handle, error) {
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return Handle{}, ErrBadHandle
	}
	return Handle{InstanceID: s[:i], SessionID: s[i+1:]}, nil
}

// UpdateEvent is published on UpdateChannel after every connect/disconnect so
// each instance can rebroadcast the online-user list to its local connections.
type UpdateEvent struct {
	UserID     string `json:"userId"`
	Status     string `json:"status"`
	OccurredAt int64  `json:"occurredAt"`
}

type Registry struct {
	client *redis.Client
}

func New(client *redis.Client) *Registry {
	return &Registry{client: client}
}

// clearScript deletes the user's entry only while it still points at the given
// handle, so a slow disconnect cannot wipe out a newer connection's entry.
var clearScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call('HDEL', KEYS[1], ARGV[1])
end
return 0
`)

// SetOnline maps the user to the handle. Last connect wins.
func (r *Registry) SetOnline(ctx context.Context, userID string, h Handle) error {
	return r.client.HSet(ctx, hashKey, userID, h.String()).Err()
}

// Lookup returns the user's handle, or ok=false when offline.
func (r *Registry) Lookup(ctx context.Context, userID string) (Handle, bool, error) {
	raw, err := r.client.HGet(ctx, hashKey, userID).Result()
	if err == redis.Nil {
		return Handle{}, false, nil
	}
	if err != nil {
		return Handle{}, false, err
	}
	h, err := ParseHandle(raw)
	if err != nil {
		return Handle{}, false, err
	}
	return h, true, nil
}

// ClearOnline removes the entry if it still belongs to h. It reports whether
// the entry was actually cleared.
func (r *Registry) ClearOnline(ctx context.Context, userID string, h Handle) (bool, error) {
	n, err := clearScript.Run(ctx, r.client, []string{hashKey}, userID, h.String()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Registry) OnlineUsers(ctx context.Context) ([]string, error) {
	return r.client.HKeys(ctx, hashKey).Result()
}

func (r *Registry) PublishUpdate(ctx context.Context, userID, status string) error {
	payload, err := json.Marshal(UpdateEvent{
		UserID:     userID,
		Status:     status,
		OccurredAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, UpdateChannel, payload).Err()
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
