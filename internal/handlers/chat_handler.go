package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/application"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/events"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/middleware"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/transport"
)

const (
	errInvalidBody   = "invalid_body"
	errInvalidParams = "invalid_params"
	errUnauthorized  = "unauthorized"
	msgInvalidJSON   = "invalid json"
)

// ChatService is the application surface the HTTP handlers depend on.
type ChatService interface {
	SendMessage(ctx context.Context, sender application.Identity, in application.SendMessageInput) (*application.SendMessageResult, error)
	ListConversations(ctx context.Context, userID string, page, limit int) (*application.ConversationPage, error)
	ListMessages(ctx context.Context, conversationID string, limit int, until *time.Time) ([]*domain.Message, error)
}

// ChatHandler handles the chat REST routes.
type ChatHandler struct {
	service ChatService
}

func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// SendMessage POST /api/chat/send-message
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	sender, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, errUnauthorized, "authentication required")
		return
	}

	var req struct {
		ConversationID   string `json:"conversationId"`
		ReceiverID       string `json:"receiverId"`
		Content          string `json:"content"`
		Type             string `json:"type"`
		ConversationType string `json:"conversationType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, errInvalidBody, msgInvalidJSON)
		return
	}

	result, err := h.service.SendMessage(r.Context(), sender, application.SendMessageInput{
		ConversationID:   req.ConversationID,
		ReceiverID:       req.ReceiverID,
		Content:          req.Content,
		Type:             domain.MessageType(req.Type),
		ConversationType: domain.ConversationType(req.ConversationType),
	})
	if err != nil {
		transport.DomainError(w, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":        true,
		"conversationId": result.ConversationID,
		"message":        events.FromMessage(result.Message),
		"updatedAt":      result.UpdatedAt,
	})
}

// GetConversations GET /api/chat/get-conversations?page=&limit=
func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, errUnauthorized, "authentication required")
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, errInvalidParams, "page must be a positive integer")
		return
	}
	limit, err := queryInt(r, "limit", application.DefaultPageSize)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, errInvalidParams, "limit must be a positive integer")
		return
	}

	result, err := h.service.ListConversations(r.Context(), caller.UserID, page, limit)
	if err != nil {
		transport.DomainError(w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"conversations":      conversationViews(result.Conversations),
		"currentPage":        result.CurrentPage,
		"totalConversations": result.TotalConversations,
		"totalPages":         result.TotalPages,
	})
}

// GetMessages GET /api/chat/get-messages/{conversationId}?limit=&until=
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.IdentityFromContext(r.Context()); !ok {
		transport.WriteError(w, http.StatusUnauthorized, errUnauthorized, "authentication required")
		return
	}

	conversationID := chi.URLParam(r, "conversationId")
	if conversationID == "" {
		transport.WriteError(w, http.StatusBadRequest, errInvalidParams, "conversationId is required")
		return
	}

	limit, err := queryInt(r, "limit", application.DefaultPageSize)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, errInvalidParams, "limit must be a positive integer")
		return
	}

	var until *time.Time
	if raw := r.URL.Query().Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			transport.WriteError(w, http.StatusBadRequest, errInvalidParams, "until must be an ISO-8601 timestamp")
			return
		}
		until = &t
	}

	messages, err := h.service.ListMessages(r.Context(), conversationID, limit, until)
	if err != nil {
		transport.DomainError(w, err)
		return
	}

	views := make([]events.MessagePayload, 0, len(messages))
	for _, m := range messages {
		views = append(views, events.FromMessage(m))
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": views,
	})
}

type conversationView struct {
	ConversationID     string    `json:"conversationId"`
	Type               string    `json:"type"`
	Participants       []string  `json:"participants"`
	AdminID            string    `json:"adminId,omitempty"`
	GroupName          string    `json:"groupName,omitempty"`
	GroupImage         string    `json:"groupImage,omitempty"`
	LastMessage        string    `json:"lastMessage"`
	UnseenMessageCount int       `json:"unseenMessageCount"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func conversationViews(summaries []*repository.ConversationSummary) []conversationView {
	views := make([]conversationView, 0, len(summaries))
	for _, s := range summaries {
		c := s.Conversation
		views = append(views, conversationView{
			ConversationID:     c.ID,
			Type:               string(c.Type),
			Participants:       c.Participants,
			AdminID:            c.Admin,
			GroupName:          c.GroupName,
			GroupImage:         c.GroupImage,
			LastMessage:        c.LastMessage,
			UnseenMessageCount: s.UnseenCount,
			UpdatedAt:          c.UpdatedAt,
		})
	}
	return views
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.ErrInvalidInput
	}
	return n, nil
}
