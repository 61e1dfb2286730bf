package handlers

import (
	"errors"
	"net/http"

	adssvc "github.com/ViceKink/vice-kink-backend/internal/services/ads"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

type AdsHandler struct {
	service *adssvc.Service
}

func NewAdsHandler(service *adssvc.Service) *AdsHandler {
	return &AdsHandler{service: service}
}

// Rewarded plays a server-driven rewarded ad. A not-ready provider or an
// abandoned watch is a successful response with completed=false, not an
// error: the client offers a retry, nothing was charged or credited.
func (h *AdsHandler) Rewarded(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "ADS_SERVICE_UNAVAILABLE", "ads service is unavailable")
		return
	}

	result, err := h.service.ShowRewarded(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, adssvc.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid rewarded ad request")
			return
		}
		handleCoinsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdRewardedResponse{
		Completed: result.Completed,
		Reward:    result.Reward,
		Balance:   result.Balance,
	})
}
