package interactions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type interactionStoreStub struct {
	nextID     int64
	lastActor  int64
	lastTarget int64
	lastKind   string
	err        error
}

func (s *interactionStoreStub) Upsert(_ context.Context, _ pgx.Tx, actorID, targetID int64, kind string) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.lastActor = actorID
	s.lastTarget = targetID
	s.lastKind = kind
	s.nextID++
	return s.nextID, nil
}

type matchStoreStub struct {
	matched bool
	created bool
	matchID int64
	calls   int
	err     error
}

func (s *matchStoreStub) EnsureForMutualLike(_ context.Context, _ pgx.Tx, _, _ int64) (bool, bool, int64, error) {
	s.calls++
	return s.matched, s.created, s.matchID, s.err
}

type rateLimiterStub struct {
	allowed    bool
	retryAfter int64
}

func (s rateLimiterStub) AllowInteraction(context.Context, int64) (int64, bool, error) {
	return s.retryAfter, s.allowed, nil
}

type notifierStub struct {
	calls   int
	matchID int64
	userA   int64
	userB   int64
}

func (s *notifierStub) MatchCreated(_ context.Context, matchID, userAID, userBID int64) {
	s.calls++
	s.matchID = matchID
	s.userA = userAID
	s.userB = userBID
}

func newTestService(interactions InteractionStore, matches MatchStore) *Service {
	svc := NewService(Dependencies{
		Interactions: interactions,
		Matches:      matches,
	}, Config{})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	svc.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestRecordLikeWithoutReciprocal(t *testing.T) {
	store := &interactionStoreStub{}
	matches := &matchStoreStub{}
	svc := newTestService(store, matches)

	result, err := svc.Record(context.Background(), 101, 202, "like")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.lastKind != "LIKE" {
		t.Fatalf("unexpected stored kind: %s", store.lastKind)
	}
	if store.lastActor != 101 || store.lastTarget != 202 {
		t.Fatalf("unexpected stored pair: %d -> %d", store.lastActor, store.lastTarget)
	}
	if matches.calls != 1 {
		t.Fatalf("expected mutual detection to run once, got %d", matches.calls)
	}
	if result.Matched || result.MatchCreated {
		t.Fatalf("expected no match, got %+v", result)
	}
}

func TestRecordMutualLikeCreatesMatchAndNotifies(t *testing.T) {
	store := &interactionStoreStub{}
	matches := &matchStoreStub{matched: true, created: true, matchID: 77}
	notifier := &notifierStub{}
	svc := newTestService(store, matches)
	svc.notifier = notifier

	result, err := svc.Record(context.Background(), 101, 202, "LIKE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Matched || !result.MatchCreated {
		t.Fatalf("expected created match, got %+v", result)
	}
	if result.MatchID != 77 {
		t.Fatalf("unexpected match id: %d", result.MatchID)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one match notification, got %d", notifier.calls)
	}
	if notifier.matchID != 77 || notifier.userA != 101 || notifier.userB != 202 {
		t.Fatalf("unexpected notification payload: %+v", notifier)
	}
}

func TestRecordRepeatLikeOnExistingMatch(t *testing.T) {
	store := &interactionStoreStub{}
	matches := &matchStoreStub{matched: true, created: false, matchID: 77}
	notifier := &notifierStub{}
	svc := newTestService(store, matches)
	svc.notifier = notifier

	result, err := svc.Record(context.Background(), 101, 202, "like")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Matched {
		t.Fatalf("repeat like on an existing match must still report matched")
	}
	if result.MatchCreated {
		t.Fatalf("repeat like must not report a created match")
	}
	if notifier.calls != 0 {
		t.Fatalf("repeat like must not notify, got %d calls", notifier.calls)
	}
}

func TestRecordDislikeSkipsMutualDetection(t *testing.T) {
	store := &interactionStoreStub{}
	matches := &matchStoreStub{matched: true, created: true, matchID: 5}
	svc := newTestService(store, matches)

	result, err := svc.Record(context.Background(), 101, 202, "dislike")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if matches.calls != 0 {
		t.Fatalf("dislike must not run mutual detection, got %d calls", matches.calls)
	}
	if result.Matched || result.MatchCreated {
		t.Fatalf("dislike must not match, got %+v", result)
	}
}

func TestRecordValidation(t *testing.T) {
	svc := newTestService(&interactionStoreStub{}, &matchStoreStub{})

	if _, err := svc.Record(context.Background(), 101, 101, "LIKE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("self swipe must fail validation, got %v", err)
	}
	if _, err := svc.Record(context.Background(), 0, 202, "LIKE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing actor must fail validation, got %v", err)
	}
	if _, err := svc.Record(context.Background(), 101, 202, "POKE"); !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("unknown kind must be rejected, got %v", err)
	}
}

func TestRecordKindNormalization(t *testing.T) {
	store := &interactionStoreStub{}
	svc := newTestService(store, &matchStoreStub{})

	if _, err := svc.Record(context.Background(), 101, 202, " super_like "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastKind != "SUPERLIKE" {
		t.Fatalf("unexpected normalized kind: %s", store.lastKind)
	}
}

func TestRecordRateLimited(t *testing.T) {
	svc := newTestService(&interactionStoreStub{}, &matchStoreStub{})
	svc.rateLimiter = rateLimiterStub{allowed: false, retryAfter: 12}

	_, err := svc.Record(context.Background(), 101, 202, "LIKE")
	var tooFast TooFastError
	if !errors.As(err, &tooFast) {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tooFast.RetryAfterSec != 12 {
		t.Fatalf("unexpected retry hint: %d", tooFast.RetryAfterSec)
	}
}
