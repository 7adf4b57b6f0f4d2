package transport

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ajshan23/chat-app-backend-chat-service/internal/domain"
	"github.com/ajshan23/chat-app-backend-chat-service/internal/observability"
)

// DomainError translates an operation error into the HTTP response. Unknown
// errors are logged server-side and surface as an opaque 500.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrMessageTooLarge),
		errors.Is(err, domain.ErrReceiverRequired),
		errors.Is(err, domain.ErrGroupNeedsID),
		errors.Is(err, domain.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())

	case errors.Is(err, domain.ErrNotParticipant):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())

	default:
		observability.Log.Error("internal_error", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}
