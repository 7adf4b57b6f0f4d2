package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/application"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/middleware"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/repository"
)

func TestMain(m *testing.M) {
	observability.InitLogger("test")
	os.Exit(m.Run())
}

type stubService struct {
	sendResult *application.SendMessageResult
	sendErr    error
	sendInput  application.SendMessageInput

	convPage *application.ConversationPage
	convErr  error

	messages    []*domain.Message
	messagesErr error
	gotLimit    int
	gotUntil    *time.Time
}

func (s *stubService) SendMessage(ctx context.Context, sender application.Identity, in application.SendMessageInput) (*application.SendMessageResult, error) {
	s.sendInput = in
	return s.sendResult, s.sendErr
}

func (s *stubService) ListConversations(ctx context.Context, userID string, page, limit int) (*application.ConversationPage, error) {
	return s.convPage, s.convErr
}

func (s *stubService) ListMessages(ctx context.Context, conversationID string, limit int, until *time.Time) ([]*domain.Message, error) {
	s.gotLimit = limit
	s.gotUntil = until
	return s.messages, s.messagesErr
}

func authed(r *http.Request) *http.Request {
	ctx := middleware.InjectIdentity(r.Context(), application.Identity{
		UserID:   "user-1",
		Username: "Alice",
	})
	return r.WithContext(ctx)
}

func TestSendMessage_OK(t *testing.T) {
	msg := &domain.Message{
		ID:               "msg-1",
		ConversationID:   "conv-1",
		SenderID:         "user-1",
		Content:          "hello",
		Type:             domain.MessageText,
		ConversationType: domain.ConversationNormal,
		Timestamp:        time.Now().UTC(),
	}
	stub := &stubService{
		sendResult: &application.SendMessageResult{
			ConversationID: "conv-1",
			Message:        msg,
			UpdatedAt:      msg.Timestamp,
		},
	}
	h := NewChatHandler(stub)

	body := `{"receiverId":"user-2","content":"hello"}`
	req := authed(httptest.NewRequest("POST", "/api/chat/send-message", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-2", stub.sendInput.ReceiverID)

	var resp struct {
		Success        bool   `json:"success"`
		ConversationID string `json:"conversationId"`
		Message        struct {
			MessageID string `json:"messageId"`
			Content   string `json:"content"`
		} `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "msg-1", resp.Message.MessageID)
	assert.Equal(t, "hello", resp.Message.Content)
}

func TestSendMessage_InvalidJSON(t *testing.T) {
	h := NewChatHandler(&stubService{})

	req := authed(httptest.NewRequest("POST", "/api/chat/send-message", strings.NewReader("{not json")))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage_Unauthenticated(t *testing.T) {
	h := NewChatHandler(&stubService{})

	req := httptest.NewRequest("POST", "/api/chat/send-message", strings.NewReader("{}"))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendMessage_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrEmptyContent, http.StatusBadRequest},
		{domain.ErrNotParticipant, http.StatusForbidden},
		{domain.ErrConversationNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		h := NewChatHandler(&stubService{sendErr: tc.err})

		req := authed(httptest.NewRequest("POST", "/api/chat/send-message", strings.NewReader(`{"content":"x"}`)))
		rec := httptest.NewRecorder()

		h.SendMessage(rec, req)
		assert.Equal(t, tc.code, rec.Code, "for error %v", tc.err)
	}
}

func TestGetConversations_OK(t *testing.T) {
	stub := &stubService{
		convPage: &application.ConversationPage{
			Conversations: []*repository.ConversationSummary{
				{
					Conversation: domain.Conversation{
						ID:           "conv-1",
						Type:         domain.ConversationNormal,
						Participants: []string{"user-1", "user-2"},
						LastMessage:  "hello",
					},
					UnseenCount: 2,
				},
			},
			CurrentPage:        1,
			TotalConversations: 1,
			TotalPages:         1,
		},
	}
	h := NewChatHandler(stub)

	req := authed(httptest.NewRequest("GET", "/api/chat/get-conversations?page=1&limit=10", nil))
	rec := httptest.NewRecorder()

	h.GetConversations(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Conversations []struct {
			ConversationID     string `json:"conversationId"`
			UnseenMessageCount int    `json:"unseenMessageCount"`
		} `json:"conversations"`
		CurrentPage        int `json:"currentPage"`
		TotalConversations int `json:"totalConversations"`
		TotalPages         int `json:"totalPages"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Conversations, 1)
	assert.Equal(t, "conv-1", resp.Conversations[0].ConversationID)
	assert.Equal(t, 2, resp.Conversations[0].UnseenMessageCount)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestGetConversations_BadPage(t *testing.T) {
	h := NewChatHandler(&stubService{})

	for _, q := range []string{"page=abc", "page=0", "limit=-5"} {
		req := authed(httptest.NewRequest("GET", "/api/chat/get-conversations?"+q, nil))
		rec := httptest.NewRecorder()

		h.GetConversations(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "for query %q", q)
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetMessages_OK(t *testing.T) {
	stub := &stubService{
		messages: []*domain.Message{
			{ID: "msg-2", ConversationID: "conv-1", Timestamp: time.Now()},
			{ID: "msg-1", ConversationID: "conv-1", Timestamp: time.Now().Add(-time.Minute)},
		},
	}
	h := NewChatHandler(stub)

	req := authed(httptest.NewRequest("GET", "/api/chat/get-messages/conv-1?limit=2&until=2026-01-02T03:04:05Z", nil))
	req = withURLParam(req, "conversationId", "conv-1")
	rec := httptest.NewRecorder()

	h.GetMessages(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, stub.gotLimit)
	if assert.NotNil(t, stub.gotUntil) {
		assert.Equal(t, 2026, stub.gotUntil.Year())
	}

	var resp struct {
		Messages []struct {
			MessageID string `json:"messageId"`
		} `json:"messages"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
	assert.Equal(t, "msg-2", resp.Messages[0].MessageID)
}

func TestGetMessages_BadUntil(t *testing.T) {
	h := NewChatHandler(&stubService{})

	req := authed(httptest.NewRequest("GET", "/api/chat/get-messages/conv-1?until=yesterday", nil))
	req = withURLParam(req, "conversationId", "conv-1")
	rec := httptest.NewRecorder()

	h.GetMessages(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
