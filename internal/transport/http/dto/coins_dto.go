package dto

import "time"

type CoinTransactionResponse struct {
	ID        int64     `json:"id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type CoinsResponse struct {
	Balance      int                       `json:"balance"`
	Transactions []CoinTransactionResponse `json:"transactions"`
}

type AdWatchRequest struct {
	ReceiptID string `json:"receipt_id"`
}

type AdWatchResponse struct {
	OK      bool `json:"ok"`
	Reward  int  `json:"reward"`
	Balance int  `json:"balance"`
}

// CoinPurchaseRequest carries either a coin pack sku or a gated feature
// tag to spend on, never both.
type CoinPurchaseRequest struct {
	SKU     string `json:"sku,omitempty"`
	Feature string `json:"feature,omitempty"`
}

type CoinPurchaseResponse struct {
	OK      bool `json:"ok"`
	Balance int  `json:"balance"`
}

type AdRewardedResponse struct {
	Completed bool `json:"completed"`
	Reward    int  `json:"reward,omitempty"`
	Balance   int  `json:"balance,omitempty"`
}
