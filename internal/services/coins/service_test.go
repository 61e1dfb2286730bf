package coins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

type coinStoreStub struct {
	balance     int
	debits      []int
	credits     []int
	lastReason  string
	debitErr    error
	transaction []pgrepo.CoinTransactionRecord
}

func (s *coinStoreStub) Balance(context.Context, int64) (int, error) {
	return s.balance, nil
}

func (s *coinStoreStub) Debit(_ context.Context, _ pgx.Tx, _ int64, amount int, reason string) error {
	if s.debitErr != nil {
		return s.debitErr
	}
	s.debits = append(s.debits, amount)
	s.lastReason = reason
	s.balance -= amount
	return nil
}

func (s *coinStoreStub) Credit(_ context.Context, _ pgx.Tx, _ int64, amount int, reason string) (int, error) {
	s.credits = append(s.credits, amount)
	s.lastReason = reason
	s.balance += amount
	return s.balance, nil
}

func (s *coinStoreStub) ListTransactions(context.Context, int64, int) ([]pgrepo.CoinTransactionRecord, error) {
	return s.transaction, nil
}

type verifierStub struct {
	err   error
	calls int
}

func (s *verifierStub) VerifyReceipt(context.Context, int64, string) error {
	s.calls++
	return s.err
}

type guardStub struct {
	claimed bool
	calls   int
	lastID  string
}

func (s *guardStub) ClaimReceipt(_ context.Context, _ int64, receiptID string, _ time.Duration) (bool, error) {
	s.calls++
	s.lastID = receiptID
	return s.claimed, nil
}

func newTestService(store *coinStoreStub) *Service {
	svc := NewService(Dependencies{Store: store}, Config{})
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

func TestPurchaseFeatureDebitsFixedPrice(t *testing.T) {
	store := &coinStoreStub{balance: 10}
	svc := newTestService(store)

	balance, err := svc.PurchaseFeature(context.Background(), 101, enums.CoinFeatureBoostProfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.debits) != 1 || store.debits[0] != 5 {
		t.Fatalf("unexpected debits: %v", store.debits)
	}
	if store.lastReason != "feature:boost_profile" {
		t.Fatalf("unexpected ledger reason: %s", store.lastReason)
	}
	if balance != 5 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestPurchaseFeatureInsufficientCoins(t *testing.T) {
	store := &coinStoreStub{balance: 0, debitErr: pgrepo.ErrInsufficientCoins}
	svc := newTestService(store)

	_, err := svc.PurchaseFeature(context.Background(), 101, enums.CoinFeatureRevealProfile)
	if !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("expected ErrInsufficientCoins, got %v", err)
	}
	if store.balance != 0 {
		t.Fatalf("failed debit must not change the balance, got %d", store.balance)
	}
}

func TestPurchaseFeatureUnknownFeature(t *testing.T) {
	svc := newTestService(&coinStoreStub{balance: 10})

	_, err := svc.PurchaseFeature(context.Background(), 101, enums.CoinFeature("TELEPORT"))
	if !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("expected ErrUnknownFeature, got %v", err)
	}
}

func TestCreditAdWatch(t *testing.T) {
	store := &coinStoreStub{balance: 2}
	verifier := &verifierStub{}
	guard := &guardStub{claimed: true}
	svc := newTestService(store)
	svc.verifier = verifier
	svc.guard = guard

	balance, err := svc.CreditAdWatch(context.Background(), 101, "receipt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if verifier.calls != 1 {
		t.Fatalf("expected one verify call, got %d", verifier.calls)
	}
	if guard.calls != 1 || guard.lastID != "receipt-1" {
		t.Fatalf("unexpected guard state: %+v", guard)
	}
	if len(store.credits) != 1 || store.credits[0] != 1 {
		t.Fatalf("unexpected credits: %v", store.credits)
	}
	if store.lastReason != enums.CoinReasonAdWatch {
		t.Fatalf("unexpected ledger reason: %s", store.lastReason)
	}
	if balance != 3 {
		t.Fatalf("unexpected balance: %d", balance)
	}
}

func TestCreditAdWatchReplayedReceipt(t *testing.T) {
	store := &coinStoreStub{balance: 2}
	svc := newTestService(store)
	svc.guard = &guardStub{claimed: false}

	_, err := svc.CreditAdWatch(context.Background(), 101, "receipt-1")
	if !errors.Is(err, ErrDuplicateReceipt) {
		t.Fatalf("expected ErrDuplicateReceipt, got %v", err)
	}
	if len(store.credits) != 0 {
		t.Fatalf("replayed receipt must not credit, got %v", store.credits)
	}
}

func TestCreditAdWatchRejectedReceipt(t *testing.T) {
	store := &coinStoreStub{balance: 2}
	svc := newTestService(store)
	svc.verifier = &verifierStub{err: errors.New("bad signature")}

	_, err := svc.CreditAdWatch(context.Background(), 101, "receipt-1")
	if !errors.Is(err, ErrReceiptRejected) {
		t.Fatalf("expected ErrReceiptRejected, got %v", err)
	}
	if len(store.credits) != 0 {
		t.Fatalf("rejected receipt must not credit, got %v", store.credits)
	}
}

func TestPurchasePack(t *testing.T) {
	store := &coinStoreStub{}
	svc := newTestService(store)

	balance, err := svc.PurchasePack(context.Background(), 101, " Coins_50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 50 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if store.lastReason != "purchase:coins_50" {
		t.Fatalf("unexpected ledger reason: %s", store.lastReason)
	}

	if _, err := svc.PurchasePack(context.Background(), 101, "coins_9000"); !errors.Is(err, ErrUnknownSKU) {
		t.Fatalf("expected ErrUnknownSKU, got %v", err)
	}
}
