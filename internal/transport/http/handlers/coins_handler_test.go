package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
)

func postPurchase(t *testing.T, h *CoinsHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/coins/purchase", strings.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 101,
		SID:    "sid-101",
		Role:   "user",
	}))

	rr := httptest.NewRecorder()
	h.Purchase(rr, req)
	return rr
}

func TestPurchaseRoutesFeatureSpend(t *testing.T) {
	svc := coinssvc.NewService(coinssvc.Dependencies{}, coinssvc.Config{})
	h := NewCoinsHandler(svc)

	// An unknown feature tag must fail validation before any debit runs,
	// proving the feature field reaches the feature spend path.
	rr := postPurchase(t, h, `{"feature":"teleport"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error code: %s", payload.Code)
	}
}

func TestPurchaseRequiresSKUOrFeature(t *testing.T) {
	svc := coinssvc.NewService(coinssvc.Dependencies{}, coinssvc.Config{})
	h := NewCoinsHandler(svc)

	if rr := postPurchase(t, h, `{}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty purchase: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if rr := postPurchase(t, h, `{"sku":"coins_10","feature":"REVEAL_IMAGE"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("sku and feature together: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPurchaseRequiresAuth(t *testing.T) {
	h := NewCoinsHandler(coinssvc.NewService(coinssvc.Dependencies{}, coinssvc.Config{}))

	req := httptest.NewRequest(http.MethodPost, "/coins/purchase", strings.NewReader(`{"feature":"REVEAL_IMAGE"}`))
	rr := httptest.NewRecorder()
	h.Purchase(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
