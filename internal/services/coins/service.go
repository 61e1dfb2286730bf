package coins

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
	"github.com/ViceKink/vice-kink-backend/internal/domain/rules"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrUnknownFeature    = errors.New("unknown coin feature")
	ErrUnknownSKU        = errors.New("unknown coin pack sku")
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrDuplicateReceipt  = errors.New("ad receipt already claimed")
	ErrReceiptRejected   = errors.New("ad receipt rejected")
)

// Coin pack SKUs sold through the in-app purchase flow.
var packSKUs = map[string]int{
	"coins_10":  10,
	"coins_50":  50,
	"coins_120": 120,
}

type CoinStore interface {
	Balance(ctx context.Context, userID int64) (int, error)
	Debit(ctx context.Context, tx pgx.Tx, userID int64, amount int, reason string) error
	Credit(ctx context.Context, tx pgx.Tx, userID int64, amount int, reason string) (int, error)
	ListTransactions(ctx context.Context, userID int64, limit int) ([]pgrepo.CoinTransactionRecord, error)
}

// AdVerifier verifies rewarded-ad completion receipts.
type AdVerifier interface {
	VerifyReceipt(ctx context.Context, userID int64, receiptID string) error
}

// ReceiptGuard deduplicates receipt ids. A false claim means the receipt
// was already credited.
type ReceiptGuard interface {
	ClaimReceipt(ctx context.Context, userID int64, receiptID string, ttl time.Duration) (bool, error)
}

type Config struct {
	AdWatchReward int
	ReceiptTTL    time.Duration
}

type Snapshot struct {
	Balance      int
	Transactions []pgrepo.CoinTransactionRecord
}

type Service struct {
	pool     *pgxpool.Pool
	store    CoinStore
	verifier AdVerifier
	guard    ReceiptGuard
	logger   *zap.Logger
	cfg      Config
	runTx    func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now      func() time.Time
}

type Dependencies struct {
	Pool     *pgxpool.Pool
	Store    CoinStore
	Verifier AdVerifier
	Guard    ReceiptGuard
	Logger   *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.AdWatchReward <= 0 {
		cfg.AdWatchReward = rules.AdWatchReward
	}
	if cfg.ReceiptTTL <= 0 {
		cfg.ReceiptTTL = 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		pool:     deps.Pool,
		store:    deps.Store,
		verifier: deps.Verifier,
		guard:    deps.Guard,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, svc.pool, fn)
	}
	return svc
}

func (s *Service) Balance(ctx context.Context, userID int64) (int, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("coin store is nil")
	}
	return s.store.Balance(ctx, userID)
}

func (s *Service) Snapshot(ctx context.Context, userID int64) (Snapshot, error) {
	if userID <= 0 {
		return Snapshot{}, ErrValidation
	}
	if s.store == nil {
		return Snapshot{}, fmt.Errorf("coin store is nil")
	}

	balance, err := s.store.Balance(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	transactions, err := s.store.ListTransactions(ctx, userID, 50)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Balance: balance, Transactions: transactions}, nil
}

// SpendOnFeature debits the fixed feature price inside tx. The caller owns
// the transaction so the debit commits or rolls back together with the
// feature side effect it pays for.
func (s *Service) SpendOnFeature(ctx context.Context, tx pgx.Tx, userID int64, feature enums.CoinFeature) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("coin store is nil")
	}

	cost, ok := rules.FeatureCost(feature)
	if !ok {
		return ErrUnknownFeature
	}

	if err := s.store.Debit(ctx, tx, userID, cost, "feature:"+strings.ToLower(string(feature))); err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientCoins) {
			return ErrInsufficientCoins
		}
		return err
	}
	return nil
}

// PurchaseFeature runs SpendOnFeature in its own transaction for callers
// that have no surrounding one.
func (s *Service) PurchaseFeature(ctx context.Context, userID int64, feature enums.CoinFeature) (int, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}
	if _, ok := rules.FeatureCost(feature); !ok {
		return 0, ErrUnknownFeature
	}

	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		return s.SpendOnFeature(txCtx, tx, userID, feature)
	}); err != nil {
		return 0, err
	}
	return s.store.Balance(ctx, userID)
}

// CreditAdWatch verifies a rewarded-ad receipt, claims it once, and credits
// the fixed reward. A replayed receipt is rejected before any credit.
func (s *Service) CreditAdWatch(ctx context.Context, userID int64, receiptID string) (int, error) {
	if userID <= 0 || strings.TrimSpace(receiptID) == "" {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("coin store is nil")
	}

	if s.verifier != nil {
		if err := s.verifier.VerifyReceipt(ctx, userID, receiptID); err != nil {
			return 0, fmt.Errorf("%w: %s", ErrReceiptRejected, err)
		}
	}

	if s.guard != nil {
		claimed, err := s.guard.ClaimReceipt(ctx, userID, receiptID, s.cfg.ReceiptTTL)
		if err != nil {
			return 0, fmt.Errorf("claim ad receipt: %w", err)
		}
		if !claimed {
			return 0, ErrDuplicateReceipt
		}
	}

	var balance int
	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		newBalance, err := s.store.Credit(txCtx, tx, userID, s.cfg.AdWatchReward, enums.CoinReasonAdWatch)
		if err != nil {
			return err
		}
		balance = newBalance
		return nil
	}); err != nil {
		return 0, err
	}

	s.logger.Info("ad watch credited",
		zap.Int64("user_id", userID),
		zap.Int("reward", s.cfg.AdWatchReward),
		zap.Int("balance", balance),
	)

	return balance, nil
}

// AdWatchReward reports the configured per-ad reward.
func (s *Service) AdWatchReward() int {
	return s.cfg.AdWatchReward
}

// PurchasePack credits a bought coin pack.
func (s *Service) PurchasePack(ctx context.Context, userID int64, sku string) (int, error) {
	if userID <= 0 {
		return 0, ErrValidation
	}
	if s.store == nil {
		return 0, fmt.Errorf("coin store is nil")
	}

	normalizedSKU := strings.ToLower(strings.TrimSpace(sku))
	amount, ok := packSKUs[normalizedSKU]
	if !ok {
		return 0, ErrUnknownSKU
	}

	var balance int
	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		newBalance, err := s.store.Credit(txCtx, tx, userID, amount, "purchase:"+normalizedSKU)
		if err != nil {
			return err
		}
		balance = newBalance
		return nil
	}); err != nil {
		return 0, err
	}

	return balance, nil
}
