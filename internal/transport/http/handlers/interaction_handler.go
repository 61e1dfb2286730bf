package handlers

import (
	"errors"
	"net/http"
	"strings"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	interactionsvc "github.com/ViceKink/vice-kink-backend/internal/services/interactions"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

type InteractionHandler struct {
	service *interactionsvc.Service
}

func NewInteractionHandler(service *interactionsvc.Service) *InteractionHandler {
	return &InteractionHandler{service: service}
}

func (h *InteractionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "INTERACTION_SERVICE_UNAVAILABLE", "interaction service is unavailable")
		return
	}

	var req dto.InteractionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.TargetID <= 0 || strings.TrimSpace(req.Kind) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and kind are required")
		return
	}

	result, err := h.service.Record(r.Context(), identity.UserID, req.TargetID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, interactionsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid interaction request")
		case errors.Is(err, interactionsvc.ErrUnsupportedKind):
			writeBadRequest(w, "VALIDATION_ERROR", "unsupported interaction kind")
		default:
			var tooFast interactionsvc.TooFastError
			if errors.As(err, &tooFast) {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_FAST",
					Message:       "too many interactions, slow down",
					RetryAfterSec: tooFast.RetryAfterSec,
				})
				return
			}
			writeInternal(w, "INTERNAL_ERROR", "failed to record interaction")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.InteractionResponse{
		OK:           true,
		Matched:      result.Matched,
		MatchCreated: result.MatchCreated,
		MatchID:      result.MatchID,
	})
}
