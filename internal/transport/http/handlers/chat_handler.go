package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	chatsvc "github.com/ViceKink/vice-kink-backend/internal/services/chat"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
}

func NewChatHandler(service *chatsvc.Service) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.ReceiverID <= 0 || strings.TrimSpace(req.ClientNonce) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "receiver_id and client_nonce are required")
		return
	}

	result, err := h.service.SendMessage(r.Context(), identity.UserID, req.ReceiverID, req.Content, req.ImageURL, req.ClientNonce)
	if err != nil {
		handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SendMessageResponse{
		OK:      true,
		Created: result.Created,
		Message: mapMessage(result.Message),
	})
}

func (h *ChatHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	otherID, ok := userIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user_id")
		return
	}

	messages, err := h.service.ListConversation(r.Context(), identity.UserID, otherID)
	if err != nil {
		handleChatError(w, err)
		return
	}

	items := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, mapMessage(msg))
	}

	httperrors.Write(w, http.StatusOK, dto.ConversationResponse{Items: items})
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	otherID, ok := userIDParam(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid user_id")
		return
	}

	count, err := h.service.MarkRead(r.Context(), identity.UserID, otherID)
	if err != nil {
		handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MarkReadResponse{OK: true, Count: count})
}

func (h *ChatHandler) RevealImage(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}

	messageID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid message id")
		return
	}

	msg, err := h.service.RevealImage(r.Context(), identity.UserID, messageID)
	if err != nil {
		handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RevealImageResponse{
		OK:      true,
		Message: mapMessage(msg),
	})
}

func handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatsvc.ErrValidation), errors.Is(err, chatsvc.ErrEmptyMessage):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid chat request")
	case errors.Is(err, chatsvc.ErrNoImage):
		writeBadRequest(w, "NO_IMAGE", "message carries no image")
	case errors.Is(err, chatsvc.ErrNotMatched):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "NOT_MATCHED",
			Message: "chat requires a mutual match",
		})
	case errors.Is(err, chatsvc.ErrNotRecipient):
		httperrors.Write(w, http.StatusForbidden, httperrors.APIError{
			Code:    "NOT_RECIPIENT",
			Message: "only the recipient can reveal an image",
		})
	case errors.Is(err, chatsvc.ErrMessageNotFound):
		httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
			Code:    "MESSAGE_NOT_FOUND",
			Message: "message not found",
		})
	case errors.Is(err, coinssvc.ErrInsufficientCoins):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "INSUFFICIENT_COINS",
			Message: "not enough coins to reveal this image",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "chat operation failed")
	}
}

func mapMessage(msg model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:              msg.ID.String(),
		SenderID:        msg.SenderID,
		ReceiverID:      msg.ReceiverID,
		Content:         msg.Content,
		ImageURL:        msg.ImageURL,
		HasAttachment:   msg.HasAttachment,
		IsImageRevealed: msg.IsImageRevealed,
		Read:            msg.Read,
		ClientNonce:     msg.ClientNonce,
		CreatedAt:       msg.CreatedAt,
	}
}

func userIDParam(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "user_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
