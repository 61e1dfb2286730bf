package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	adssvc "github.com/ViceKink/vice-kink-backend/internal/services/ads"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
)

type adProviderStub struct {
	completed bool
}

func (p adProviderStub) Prepare(context.Context) error {
	return nil
}

func (p adProviderStub) Show(context.Context) (bool, error) {
	return p.completed, nil
}

type adRewarderStub struct {
	balance int
	credits int
}

func (r *adRewarderStub) CreditAdWatch(context.Context, int64, string) (int, error) {
	r.credits++
	r.balance++
	return r.balance, nil
}

func (r *adRewarderStub) AdWatchReward() int {
	return 1
}

func postRewarded(t *testing.T, h *AdsHandler, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/ads/rewarded", nil)
	if authed {
		req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
			UserID: 101,
			SID:    "sid-101",
			Role:   "user",
		}))
	}

	rr := httptest.NewRecorder()
	h.Rewarded(rr, req)
	return rr
}

func TestRewardedCreditsCompletedWatch(t *testing.T) {
	rewarder := &adRewarderStub{balance: 4}
	h := NewAdsHandler(adssvc.NewService(adProviderStub{completed: true}, rewarder, nil))

	rr := postRewarded(t, h, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Completed bool `json:"completed"`
		Reward    int  `json:"reward"`
		Balance   int  `json:"balance"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Completed || payload.Reward != 1 || payload.Balance != 5 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if rewarder.credits != 1 {
		t.Fatalf("expected exactly one credit, got %d", rewarder.credits)
	}
}

func TestRewardedAbandonedWatchIsNotAnError(t *testing.T) {
	rewarder := &adRewarderStub{}
	h := NewAdsHandler(adssvc.NewService(adProviderStub{completed: false}, rewarder, nil))

	rr := postRewarded(t, h, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Completed {
		t.Fatalf("abandoned watch must not report completion")
	}
	if rewarder.credits != 0 {
		t.Fatalf("abandoned watch must not credit, got %d", rewarder.credits)
	}
}

func TestRewardedRequiresAuth(t *testing.T) {
	h := NewAdsHandler(adssvc.NewService(adProviderStub{completed: true}, &adRewarderStub{}, nil))

	if rr := postRewarded(t, h, false); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}
