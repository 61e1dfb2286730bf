package interactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedKind = errors.New("unsupported interaction kind")
)

type InteractionStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID int64, kind string) (int64, error)
}

type MatchStore interface {
	EnsureForMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64) (matched bool, created bool, matchID int64, err error)
}

type RateLimiter interface {
	AllowInteraction(ctx context.Context, userID int64) (retryAfterSec int64, allowed bool, err error)
}

// Notifier pushes realtime events to connected clients. Delivery failures
// must not fail the swipe.
type Notifier interface {
	MatchCreated(ctx context.Context, matchID, userAID, userBID int64)
}

type Config struct{}

type RecordResult struct {
	InteractionID int64
	Matched       bool
	MatchCreated  bool
	MatchID       int64
}

type Service struct {
	pool         *pgxpool.Pool
	interactions InteractionStore
	matches      MatchStore
	rateLimiter  RateLimiter
	notifier     Notifier
	logger       *zap.Logger
	runTx        func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now          func() time.Time
}

type Dependencies struct {
	Pool         *pgxpool.Pool
	Interactions InteractionStore
	Matches      MatchStore
	RateLimiter  RateLimiter
	Notifier     Notifier
	Logger       *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		pool:         deps.Pool,
		interactions: deps.Interactions,
		matches:      deps.Matches,
		rateLimiter:  deps.RateLimiter,
		notifier:     deps.Notifier,
		logger:       logger,
		now:          time.Now,
	}
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, svc.pool, fn)
	}
	return svc
}

// Record stores an interaction and, for positive kinds, runs mutual
// detection in the same transaction so a concurrent reciprocal swipe cannot
// race past it. Matched reports whether a reciprocal like exists at all,
// MatchCreated whether this call materialized the match.
func (s *Service) Record(ctx context.Context, userID, targetID int64, kind string) (RecordResult, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return RecordResult{}, ErrValidation
	}

	normalizedKind, err := normalizeKind(kind)
	if err != nil {
		return RecordResult{}, err
	}

	if s.interactions == nil || s.matches == nil {
		return RecordResult{}, fmt.Errorf("interaction dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowInteraction(ctx, userID)
		if err != nil {
			return RecordResult{}, fmt.Errorf("apply interaction rate limiter: %w", err)
		}
		if !allowed {
			return RecordResult{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	var result RecordResult
	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		interactionID, err := s.interactions.Upsert(txCtx, tx, userID, targetID, string(normalizedKind))
		if err != nil {
			return err
		}
		result.InteractionID = interactionID

		if !normalizedKind.Positive() {
			return nil
		}

		matched, created, matchID, err := s.matches.EnsureForMutualLike(txCtx, tx, userID, targetID)
		if err != nil {
			return err
		}
		result.Matched = matched
		result.MatchCreated = created
		result.MatchID = matchID
		return nil
	}); err != nil {
		return RecordResult{}, err
	}

	if result.MatchCreated && s.notifier != nil {
		s.notifier.MatchCreated(ctx, result.MatchID, userID, targetID)
	}

	return result, nil
}

// TooFastError carries the retry hint for rate limited swipes.
type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return fmt.Sprintf("too many interactions, retry after %d seconds", e.RetryAfterSec)
}

func normalizeKind(input string) (enums.InteractionKind, error) {
	value := strings.ToUpper(strings.TrimSpace(input))
	value = strings.ReplaceAll(value, "_", "")
	switch enums.InteractionKind(value) {
	case enums.InteractionKindLike, enums.InteractionKindDislike, enums.InteractionKindSuperLike:
		return enums.InteractionKind(value), nil
	default:
		return "", ErrUnsupportedKind
	}
}
