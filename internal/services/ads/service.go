package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrReceiptInvalid = errors.New("ad receipt is invalid")
)

// Provider is the ad network seam: Prepare loads an ad, Show plays it and
// reports whether the user watched to completion.
type Provider interface {
	Prepare(ctx context.Context) error
	Show(ctx context.Context) (completed bool, err error)
}

// Rewarder credits a completed ad view. The coins service implements it.
type Rewarder interface {
	CreditAdWatch(ctx context.Context, userID int64, receiptID string) (int, error)
	AdWatchReward() int
}

type RewardResult struct {
	Completed bool
	Reward    int
	Balance   int
}

// Service drives the full rewarded-ad flow server-side for clients without
// their own ad SDK integration.
type Service struct {
	provider  Provider
	rewarder  Rewarder
	logger    *zap.Logger
	receiptID func() string
}

func NewService(provider Provider, rewarder Rewarder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider: provider,
		rewarder: rewarder,
		logger:   logger,
		receiptID: func() string {
			return "srv-" + uuid.NewString()
		},
	}
}

// ShowRewarded walks prepare, show, and credit. A provider that is not
// ready or an ad the user abandoned yields Completed=false without error
// and without credit; only genuine completion reaches the wallet.
func (s *Service) ShowRewarded(ctx context.Context, userID int64) (RewardResult, error) {
	if userID <= 0 {
		return RewardResult{}, ErrValidation
	}
	if s.provider == nil || s.rewarder == nil {
		return RewardResult{}, fmt.Errorf("ads dependencies are not configured")
	}

	if err := s.provider.Prepare(ctx); err != nil {
		s.logger.Info("rewarded ad not ready",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return RewardResult{}, nil
	}

	completed, err := s.provider.Show(ctx)
	if err != nil {
		return RewardResult{}, fmt.Errorf("show rewarded ad: %w", err)
	}
	if !completed {
		return RewardResult{}, nil
	}

	balance, err := s.rewarder.CreditAdWatch(ctx, userID, s.receiptID())
	if err != nil {
		return RewardResult{}, err
	}

	return RewardResult{
		Completed: true,
		Reward:    s.rewarder.AdWatchReward(),
		Balance:   balance,
	}, nil
}

// SimulatedProvider stands in for a real ad network integration. Show
// pretends to play an ad for the minimum watch interval; a context
// canceled mid-play counts as abandonment.
type SimulatedProvider struct {
	MinWatch time.Duration
}

func NewSimulatedProvider(minWatch time.Duration) *SimulatedProvider {
	if minWatch <= 0 {
		minWatch = 5 * time.Second
	}
	return &SimulatedProvider{MinWatch: minWatch}
}

func (p *SimulatedProvider) Prepare(context.Context) error {
	return nil
}

func (p *SimulatedProvider) Show(ctx context.Context) (bool, error) {
	timer := time.NewTimer(p.MinWatch)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, nil
	case <-timer.C:
		return true, nil
	}
}

// VerifyReceipt accepts any well-formed receipt. Receipts from clients
// with a real ad SDK would be checked against the network here.
func (p *SimulatedProvider) VerifyReceipt(_ context.Context, userID int64, receiptID string) error {
	if userID <= 0 {
		return ErrValidation
	}
	if strings.TrimSpace(receiptID) == "" {
		return ErrReceiptInvalid
	}
	return nil
}
