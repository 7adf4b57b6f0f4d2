package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/config"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/handlers"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/middleware"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

// NewRouter assembles the public HTTP surface: the chat REST routes behind JWT
// auth and the connection upgrade endpoint. The upgrade endpoint authenticates
// by userId query parameter because browsers cannot set headers on WebSocket
// handshakes.
func NewRouter(
	chatH *handlers.ChatHandler,
	wsHandler http.Handler,
	cfg *config.Config,
	readiness ...observability.Pinger,
) http.Handler {

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))
	r.Use(middleware.Recovery())
	r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	r.Get("/health/live", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(readiness...))

	r.Handle("/ws", wsHandler)

	r.Group(func(p chi.Router) {
		p.Use(middleware.JWT(cfg.JWTSecret))

		p.Post("/api/chat/send-message", chatH.SendMessage)
		p.Get("/api/chat/get-conversations", chatH.GetConversations)
		p.Get("/api/chat/get-messages/{conversationId}", chatH.GetMessages)
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}
