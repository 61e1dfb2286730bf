package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrDependenciesNil = errors.New("likes dependencies are not configured")
	ErrNothingToReveal = errors.New("nothing to reveal")
	ErrCoinsRequired   = errors.New("coins required")
)

type IncomingStore interface {
	ListIncomingLikers(ctx context.Context, userID int64, limit int) ([]pgrepo.IncomingLikerRecord, error)
	MarkRevealed(ctx context.Context, tx pgx.Tx, ownerID, likerID int64) (bool, error)
	IsRevealed(ctx context.Context, tx pgx.Tx, ownerID, likerID int64) (bool, error)
}

// CoinSpender debits the reveal price inside the reveal transaction.
type CoinSpender interface {
	SpendOnFeature(ctx context.Context, tx pgx.Tx, userID int64, feature enums.CoinFeature) error
}

// IncomingLiker is one entry of the "who liked me" list. Identity fields
// stay zeroed until the viewer pays for the reveal.
type IncomingLiker struct {
	LikerUserID int64
	DisplayName string
	Age         int
	City        string
	AvatarURL   string
	Revealed    bool
	LikedAt     time.Time
}

type IncomingResult struct {
	TotalCount int
	Likers     []IncomingLiker
}

type Config struct {
	ListLimit int
}

type Service struct {
	pool     *pgxpool.Pool
	incoming IncomingStore
	coins    CoinSpender
	cfg      Config
	runTx    func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now      func() time.Time
}

type Dependencies struct {
	Pool     *pgxpool.Pool
	Incoming IncomingStore
	Coins    CoinSpender
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}

	svc := &Service{
		pool:     deps.Pool,
		incoming: deps.Incoming,
		coins:    deps.Coins,
		cfg:      cfg,
		now:      time.Now,
	}
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, svc.pool, fn)
	}
	return svc
}

// GetIncoming lists users who liked the viewer and have not been liked
// back. Unrevealed entries are masked so the handler cannot leak identity
// by accident.
func (s *Service) GetIncoming(ctx context.Context, userID int64) (IncomingResult, error) {
	if userID <= 0 {
		return IncomingResult{}, ErrValidation
	}
	if s.incoming == nil {
		return IncomingResult{}, ErrDependenciesNil
	}

	rows, err := s.incoming.ListIncomingLikers(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("load incoming likers: %w", err)
	}

	result := IncomingResult{
		TotalCount: len(rows),
		Likers:     make([]IncomingLiker, 0, len(rows)),
	}
	for _, row := range rows {
		result.Likers = append(result.Likers, mapIncomingRow(row))
	}

	return result, nil
}

// RevealLiker charges the reveal price and unmasks one liker. Revealing an
// already revealed liker succeeds without charging again.
func (s *Service) RevealLiker(ctx context.Context, userID, likerID int64) (IncomingLiker, error) {
	if userID <= 0 || likerID <= 0 || userID == likerID {
		return IncomingLiker{}, ErrValidation
	}
	if s.incoming == nil || s.coins == nil {
		return IncomingLiker{}, ErrDependenciesNil
	}

	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		alreadyRevealed, err := s.incoming.IsRevealed(txCtx, tx, userID, likerID)
		if err != nil {
			return err
		}
		if alreadyRevealed {
			return nil
		}

		if err := s.coins.SpendOnFeature(txCtx, tx, userID, enums.CoinFeatureRevealProfile); err != nil {
			return err
		}

		flipped, err := s.incoming.MarkRevealed(txCtx, tx, userID, likerID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrNothingToReveal
		}
		return nil
	}); err != nil {
		return IncomingLiker{}, err
	}

	rows, err := s.incoming.ListIncomingLikers(ctx, userID, s.cfg.ListLimit)
	if err != nil {
		return IncomingLiker{}, fmt.Errorf("reload incoming likers: %w", err)
	}
	for _, row := range rows {
		if row.LikerUserID == likerID {
			return mapIncomingRow(row), nil
		}
	}

	// The liker dropped out of the list between the reveal and the reload,
	// usually because a reciprocal like turned the pair into a match.
	return IncomingLiker{LikerUserID: likerID, Revealed: true}, nil
}

func mapIncomingRow(row pgrepo.IncomingLikerRecord) IncomingLiker {
	item := IncomingLiker{
		LikerUserID: row.LikerUserID,
		Revealed:    row.IsRevealed,
		LikedAt:     row.CreatedAt,
	}
	if row.IsRevealed {
		item.DisplayName = row.DisplayName
		item.Age = row.Age
		item.City = row.City
		item.AvatarURL = row.AvatarURL
	}
	return item
}
