package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// AdGuardRepo deduplicates rewarded-ad completion receipts so a replayed
// receipt cannot be credited twice.
type AdGuardRepo struct {
	client *goredis.Client
}

func NewAdGuardRepo(client *goredis.Client) *AdGuardRepo {
	return &AdGuardRepo{client: client}
}

func (r *AdGuardRepo) ClaimReceipt(ctx context.Context, userID int64, receiptID string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 || receiptID == "" {
		return false, fmt.Errorf("invalid receipt payload")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	key := fmt.Sprintf("adreceipt:%d:%s", userID, receiptID)
	ok, err := r.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim ad receipt: %w", err)
	}

	return ok, nil
}
