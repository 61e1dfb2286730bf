package likes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

type incomingStoreStub struct {
	rows        []pgrepo.IncomingLikerRecord
	revealed    map[int64]bool
	markCalls   int
	revealError error
}

func (s *incomingStoreStub) ListIncomingLikers(context.Context, int64, int) ([]pgrepo.IncomingLikerRecord, error) {
	out := make([]pgrepo.IncomingLikerRecord, len(s.rows))
	copy(out, s.rows)
	for i := range out {
		if s.revealed[out[i].LikerUserID] {
			out[i].IsRevealed = true
		}
	}
	return out, nil
}

func (s *incomingStoreStub) MarkRevealed(_ context.Context, _ pgx.Tx, _, likerID int64) (bool, error) {
	if s.revealError != nil {
		return false, s.revealError
	}
	s.markCalls++
	for _, row := range s.rows {
		if row.LikerUserID == likerID {
			if s.revealed == nil {
				s.revealed = map[int64]bool{}
			}
			s.revealed[likerID] = true
			return true, nil
		}
	}
	return false, nil
}

func (s *incomingStoreStub) IsRevealed(_ context.Context, _ pgx.Tx, _, likerID int64) (bool, error) {
	return s.revealed[likerID], nil
}

type coinSpenderStub struct {
	calls    int
	lastUser int64
	feature  enums.CoinFeature
	err      error
}

func (s *coinSpenderStub) SpendOnFeature(_ context.Context, _ pgx.Tx, userID int64, feature enums.CoinFeature) error {
	if s.err != nil {
		return s.err
	}
	s.calls++
	s.lastUser = userID
	s.feature = feature
	return nil
}

func newTestService(store *incomingStoreStub, coins *coinSpenderStub) *Service {
	svc := NewService(Dependencies{Incoming: store, Coins: coins}, Config{})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func likedAt(day int) time.Time {
	return time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC)
}

func TestGetIncomingMasksUnrevealedLikers(t *testing.T) {
	store := &incomingStoreStub{
		rows: []pgrepo.IncomingLikerRecord{
			{LikerUserID: 202, DisplayName: "Dana", Age: 29, City: "Berlin", AvatarURL: "https://cdn/a.jpg", CreatedAt: likedAt(2)},
			{LikerUserID: 303, DisplayName: "Riley", Age: 31, City: "Hamburg", AvatarURL: "https://cdn/b.jpg", IsRevealed: true, CreatedAt: likedAt(1)},
		},
	}
	svc := newTestService(store, &coinSpenderStub{})

	result, err := svc.GetIncoming(context.Background(), 101)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalCount != 2 {
		t.Fatalf("unexpected total: %d", result.TotalCount)
	}

	masked := result.Likers[0]
	if masked.Revealed {
		t.Fatalf("first liker must be masked")
	}
	if masked.DisplayName != "" || masked.Age != 0 || masked.City != "" || masked.AvatarURL != "" {
		t.Fatalf("masked liker leaked identity: %+v", masked)
	}
	if masked.LikedAt.IsZero() {
		t.Fatalf("masked liker must keep its timestamp")
	}

	revealed := result.Likers[1]
	if !revealed.Revealed || revealed.DisplayName != "Riley" || revealed.Age != 31 {
		t.Fatalf("revealed liker must carry identity: %+v", revealed)
	}
}

func TestRevealLikerChargesOnce(t *testing.T) {
	store := &incomingStoreStub{
		rows: []pgrepo.IncomingLikerRecord{
			{LikerUserID: 202, DisplayName: "Dana", Age: 29, City: "Berlin", CreatedAt: likedAt(2)},
		},
	}
	coins := &coinSpenderStub{}
	svc := newTestService(store, coins)

	liker, err := svc.RevealLiker(context.Background(), 101, 202)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if coins.calls != 1 || coins.feature != enums.CoinFeatureRevealProfile {
		t.Fatalf("unexpected coin spend: %+v", coins)
	}
	if !liker.Revealed || liker.DisplayName != "Dana" {
		t.Fatalf("reveal must unmask the liker: %+v", liker)
	}

	again, err := svc.RevealLiker(context.Background(), 101, 202)
	if err != nil {
		t.Fatalf("unexpected error on repeat reveal: %v", err)
	}
	if coins.calls != 1 {
		t.Fatalf("repeat reveal must not charge, got %d spends", coins.calls)
	}
	if !again.Revealed {
		t.Fatalf("repeat reveal must still report revealed")
	}
}

func TestRevealLikerInsufficientCoins(t *testing.T) {
	store := &incomingStoreStub{
		rows: []pgrepo.IncomingLikerRecord{
			{LikerUserID: 202, CreatedAt: likedAt(2)},
		},
	}
	coins := &coinSpenderStub{err: errors.New("insufficient coins")}
	svc := newTestService(store, coins)

	if _, err := svc.RevealLiker(context.Background(), 101, 202); err == nil {
		t.Fatalf("expected reveal to fail without coins")
	}
	if store.markCalls != 0 {
		t.Fatalf("failed charge must not flip the reveal flag")
	}
}

func TestRevealLikerUnknownLiker(t *testing.T) {
	store := &incomingStoreStub{}
	svc := newTestService(store, &coinSpenderStub{})

	if _, err := svc.RevealLiker(context.Background(), 101, 999); !errors.Is(err, ErrNothingToReveal) {
		t.Fatalf("expected ErrNothingToReveal, got %v", err)
	}
}
