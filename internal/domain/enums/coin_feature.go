package enums

// CoinFeature tags a coin debit with the gated feature it paid for.
type CoinFeature string

const (
	CoinFeatureRevealProfile CoinFeature = "REVEAL_PROFILE"
	CoinFeatureRevealImage   CoinFeature = "REVEAL_IMAGE"
	CoinFeatureBoostProfile  CoinFeature = "BOOST_PROFILE"
)

// CoinReasonAdWatch is the ledger reason for rewarded-ad credits.
const CoinReasonAdWatch = "ad_watch"
