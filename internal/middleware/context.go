package middleware

import (
	"context"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/application"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	requestIDKey
)

func InjectIdentity(ctx context.Context, id application.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated caller, or ok=false on
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) (application.Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return application.Identity{}, false
	}
	return v.(application.Identity), true
}

func InjectRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey)
	if v == nil {
		return ""
	}
	return v.(string)
}
