package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
	likessvc "github.com/ViceKink/vice-kink-backend/internal/services/likes"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

type LikesHandler struct {
	service *likessvc.Service
}

func NewLikesHandler(service *likessvc.Service) *LikesHandler {
	return &LikesHandler{service: service}
}

func (h *LikesHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	result, err := h.service.GetIncoming(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, likessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid likes request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to load incoming likes")
		}
		return
	}

	items := make([]dto.IncomingLikerResponse, 0, len(result.Likers))
	for _, liker := range result.Likers {
		items = append(items, mapIncomingLiker(liker))
	}

	httperrors.Write(w, http.StatusOK, dto.IncomingLikesResponse{
		TotalCount: result.TotalCount,
		Items:      items,
	})
}

func (h *LikesHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "LIKES_SERVICE_UNAVAILABLE", "likes service is unavailable")
		return
	}

	var req dto.RevealLikerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.LikerID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "liker_id is required")
		return
	}

	liker, err := h.service.RevealLiker(r.Context(), identity.UserID, req.LikerID)
	if err != nil {
		switch {
		case errors.Is(err, likessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid reveal request")
		case errors.Is(err, coinssvc.ErrInsufficientCoins):
			httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
				Code:    "INSUFFICIENT_COINS",
				Message: "not enough coins to reveal this profile",
			})
		case errors.Is(err, likessvc.ErrNothingToReveal):
			httperrors.Write(w, http.StatusNotFound, httperrors.APIError{
				Code:    "NOTHING_TO_REVEAL",
				Message: "no hidden like from this user",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "failed to reveal liker")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RevealLikerResponse{
		OK:    true,
		Liker: mapIncomingLiker(liker),
	})
}

func mapIncomingLiker(liker likessvc.IncomingLiker) dto.IncomingLikerResponse {
	return dto.IncomingLikerResponse{
		LikerUserID: liker.LikerUserID,
		DisplayName: liker.DisplayName,
		Age:         liker.Age,
		City:        liker.City,
		AvatarURL:   liker.AvatarURL,
		Revealed:    liker.Revealed,
		LikedAt:     liker.LikedAt,
	}
}
