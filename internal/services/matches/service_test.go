package matches

import (
	"context"
	"errors"
	"testing"
	"time"

	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

type matchStoreStub struct {
	rows  []pgrepo.MatchRecord
	pairs map[[2]int64]bool
}

func (s *matchStoreStub) ListForUser(context.Context, int64, int) ([]pgrepo.MatchRecord, error) {
	return s.rows, nil
}

func (s *matchStoreStub) ExistsBetween(_ context.Context, userID, otherID int64) (bool, error) {
	if userID > otherID {
		userID, otherID = otherID, userID
	}
	return s.pairs[[2]int64{userID, otherID}], nil
}

func TestListMapsPreviewFields(t *testing.T) {
	matchedAt := time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)
	store := &matchStoreStub{
		rows: []pgrepo.MatchRecord{
			{
				ID:          7,
				OtherUserID: 202,
				DisplayName: "Dana",
				Age:         29,
				City:        "Berlin",
				AvatarURL:   "https://cdn/a.jpg",
				LastMessage: "see you there",
				UnreadCount: 2,
				MatchedAt:   matchedAt,
			},
		},
	}
	svc := NewService(Dependencies{MatchStore: store})

	items, err := svc.List(context.Background(), 101, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected item count: %d", len(items))
	}

	item := items[0]
	if item.OtherUserID != 202 || item.DisplayName != "Dana" {
		t.Fatalf("unexpected item identity: %+v", item)
	}
	if item.LastMessage != "see you there" || item.UnreadCount != 2 {
		t.Fatalf("unexpected chat preview: %+v", item)
	}
	if !item.MatchedAt.Equal(matchedAt) {
		t.Fatalf("unexpected matched at: %v", item.MatchedAt)
	}
}

func TestListValidation(t *testing.T) {
	svc := NewService(Dependencies{MatchStore: &matchStoreStub{}})
	if _, err := svc.List(context.Background(), 0, 50); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAreMatchedIsOrderIndependent(t *testing.T) {
	store := &matchStoreStub{pairs: map[[2]int64]bool{{101, 202}: true}}
	svc := NewService(Dependencies{MatchStore: store})

	for _, pair := range [][2]int64{{101, 202}, {202, 101}} {
		ok, err := svc.AreMatched(context.Background(), pair[0], pair[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected pair %v to be matched", pair)
		}
	}

	ok, err := svc.AreMatched(context.Background(), 101, 303)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected unmatched pair to report false")
	}
}
