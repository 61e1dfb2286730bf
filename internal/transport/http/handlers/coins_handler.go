package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
	"github.com/ViceKink/vice-kink-backend/internal/transport/http/dto"
	httperrors "github.com/ViceKink/vice-kink-backend/internal/transport/http/errors"
)

type CoinsHandler struct {
	service *coinssvc.Service
}

func NewCoinsHandler(service *coinssvc.Service) *CoinsHandler {
	return &CoinsHandler{service: service}
}

func (h *CoinsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), identity.UserID)
	if err != nil {
		handleCoinsError(w, err)
		return
	}

	transactions := make([]dto.CoinTransactionResponse, 0, len(snapshot.Transactions))
	for _, tx := range snapshot.Transactions {
		transactions = append(transactions, dto.CoinTransactionResponse{
			ID:        tx.ID,
			Amount:    tx.Amount,
			Reason:    tx.Reason,
			CreatedAt: tx.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.CoinsResponse{
		Balance:      snapshot.Balance,
		Transactions: transactions,
	})
}

func (h *CoinsHandler) AdWatch(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	var req dto.AdWatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if strings.TrimSpace(req.ReceiptID) == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "receipt_id is required")
		return
	}

	balance, err := h.service.CreditAdWatch(r.Context(), identity.UserID, req.ReceiptID)
	if err != nil {
		handleCoinsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdWatchResponse{
		OK:      true,
		Reward:  h.service.AdWatchReward(),
		Balance: balance,
	})
}

func (h *CoinsHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "COINS_SERVICE_UNAVAILABLE", "coins service is unavailable")
		return
	}

	var req dto.CoinPurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	feature := strings.ToUpper(strings.TrimSpace(req.Feature))
	sku := strings.TrimSpace(req.SKU)

	var balance int
	var err error
	switch {
	case feature != "" && sku != "":
		writeBadRequest(w, "VALIDATION_ERROR", "sku and feature are mutually exclusive")
		return
	case feature != "":
		balance, err = h.service.PurchaseFeature(r.Context(), identity.UserID, enums.CoinFeature(feature))
	case sku != "":
		balance, err = h.service.PurchasePack(r.Context(), identity.UserID, sku)
	default:
		writeBadRequest(w, "VALIDATION_ERROR", "sku or feature is required")
		return
	}
	if err != nil {
		handleCoinsError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CoinPurchaseResponse{
		OK:      true,
		Balance: balance,
	})
}

func handleCoinsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coinssvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid coins request")
	case errors.Is(err, coinssvc.ErrUnknownSKU):
		writeBadRequest(w, "VALIDATION_ERROR", "unknown coin pack sku")
	case errors.Is(err, coinssvc.ErrUnknownFeature):
		writeBadRequest(w, "VALIDATION_ERROR", "unknown coin feature")
	case errors.Is(err, coinssvc.ErrInsufficientCoins):
		httperrors.Write(w, http.StatusPaymentRequired, httperrors.APIError{
			Code:    "INSUFFICIENT_COINS",
			Message: "not enough coins",
		})
	case errors.Is(err, coinssvc.ErrDuplicateReceipt):
		httperrors.Write(w, http.StatusConflict, httperrors.APIError{
			Code:    "RECEIPT_ALREADY_CLAIMED",
			Message: "this ad receipt was already credited",
		})
	case errors.Is(err, coinssvc.ErrReceiptRejected):
		writeBadRequest(w, "RECEIPT_REJECTED", "ad receipt failed verification")
	default:
		writeInternal(w, "INTERNAL_ERROR", "coins operation failed")
	}
}
